package resolver

import "encoding/json"

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type getTransactionConfig struct {
	Encoding                       string `json:"encoding"`
	MaxSupportedTransactionVersion int    `json:"maxSupportedTransactionVersion"`
	Commitment                     string `json:"commitment"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// TransactionResult is the subset of a getTransaction result (json encoding)
// needed to build a transaction.Transaction.
type TransactionResult struct {
	Slot        *uint64             `json:"slot" validate:"required"`
	BlockTime   *int64              `json:"blockTime"`
	Transaction *TransactionPayload `json:"transaction" validate:"required"`
	Meta        *TransactionMeta    `json:"meta" validate:"required"`
}

type TransactionPayload struct {
	Signatures []string        `json:"signatures"`
	Message    *MessagePayload `json:"message" validate:"required"`
}

type MessagePayload struct {
	AccountKeys []string `json:"accountKeys" validate:"required,min=1,dive,required"`
}

type TransactionMeta struct {
	// Err is nil for successful transactions. Any other value, even an empty
	// object, marks the transaction as failed.
	Err          interface{} `json:"err"`
	Fee          *uint64     `json:"fee" validate:"required"`
	PreBalances  []uint64    `json:"preBalances" validate:"required"`
	PostBalances []uint64    `json:"postBalances" validate:"required"`
}

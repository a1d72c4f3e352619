package stream

import "encoding/json"

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type mentionsFilter struct {
	Mentions []string `json:"mentions"`
}

type commitmentConfig struct {
	Commitment string `json:"commitment"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcMessage covers both replies to our requests (id set) and subscription
// notifications (method set).
type rpcMessage struct {
	ID     *uint64           `json:"id"`
	Method string            `json:"method"`
	Result json.RawMessage   `json:"result"`
	Error  *rpcError         `json:"error"`
	Params *notificationBody `json:"params"`
}

type notificationBody struct {
	Subscription uint64 `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
			Logs      []string    `json:"logs"`
		} `json:"value"`
	} `json:"result"`
}

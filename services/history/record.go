package history

import (
	"errors"
	"time"

	"solana-wallet-monitor/services/transaction"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BalanceChange struct {
	Account       string `json:"account" bson:"account"`
	PreLamports   uint64 `json:"pre_lamports" bson:"pre_lamports"`
	PostLamports  uint64 `json:"post_lamports" bson:"post_lamports"`
	DeltaLamports int64  `json:"delta_lamports" bson:"delta_lamports"`
}

// Record is the archived form of a resolved transaction.
type Record struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Signature string             `json:"signature" bson:"signature"`
	SessionID string             `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Wallet    string             `json:"wallet,omitempty" bson:"wallet,omitempty"`

	Timestamp   *time.Time `json:"timestamp" bson:"timestamp"`
	Slot        uint64     `json:"slot" bson:"slot"`
	FeeLamports uint64     `json:"fee_lamports" bson:"fee_lamports"`
	Status      string     `json:"status" bson:"status"`
	Type        string     `json:"type" bson:"type"`

	AccountKeys            []string        `json:"account_keys" bson:"account_keys"`
	BalanceChanges         []BalanceChange `json:"balance_changes" bson:"balance_changes"`
	FromAccount            string          `json:"from_account,omitempty" bson:"from_account,omitempty"`
	ToAccount              string          `json:"to_account,omitempty" bson:"to_account,omitempty"`
	TransferAmountLamports int64           `json:"transfer_amount_lamports" bson:"transfer_amount_lamports"`

	Position int `json:"position" bson:"position"`

	CreatedAt time.Time `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func NewRecord(tx *transaction.Transaction, position int) (*Record, error) {
	if tx == nil {
		return nil, errors.New("invalid transaction")
	}
	if tx.Signature == "" {
		return nil, errors.New("invalid signature")
	}

	changes := make([]BalanceChange, 0, len(tx.BalanceChanges))
	for _, c := range tx.BalanceChanges {
		changes = append(changes, BalanceChange{
			Account:       c.Account,
			PreLamports:   c.PreLamports,
			PostLamports:  c.PostLamports,
			DeltaLamports: c.DeltaLamports,
		})
	}

	now := time.Now().UTC()

	return &Record{
		Signature: string(tx.Signature),

		Timestamp:   tx.Timestamp,
		Slot:        tx.Slot,
		FeeLamports: tx.FeeLamports,
		Status:      string(tx.Status),
		Type:        string(tx.Type),

		AccountKeys:            tx.AccountKeys,
		BalanceChanges:         changes,
		FromAccount:            tx.FromAccount,
		ToAccount:              tx.ToAccount,
		TransferAmountLamports: tx.TransferAmountLamports,

		Position: position,

		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *Record) SetSession(sessionID, wallet string) {
	r.SessionID = sessionID
	r.Wallet = wallet
	r.UpdatedAt = time.Now().UTC()
}

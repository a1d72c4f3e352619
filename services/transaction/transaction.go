package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Signature identifies one transaction notification. Two signatures are the
// same event iff their values are equal.
type Signature string

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

type Type string

const (
	TypeSolTransfer     Type = "SOL_TRANSFER"
	TypeTokenTransfer   Type = "TOKEN_TRANSFER"
	TypeSystemOperation Type = "SYSTEM_OPERATION"
	TypeContractCall    Type = "CONTRACT_CALL"
)

const (
	UnknownTimestamp = "Unknown"
	TimestampLayout  = "2006-01-02 15:04:05 UTC"

	lamportsExponent = -9
	// balance moves at or below 0.000001 SOL are not treated as a sender or receiver
	significantLamports int64 = 1_000
)

// Lamports converts an amount of lamports to SOL.
func Lamports(v int64) decimal.Decimal {
	return decimal.New(v, lamportsExponent)
}

type BalanceChange struct {
	Account       string `json:"account"`
	PreLamports   uint64 `json:"pre_lamports"`
	PostLamports  uint64 `json:"post_lamports"`
	DeltaLamports int64  `json:"delta_lamports"`
}

func (b BalanceChange) Pre() decimal.Decimal   { return Lamports(int64(b.PreLamports)) }
func (b BalanceChange) Post() decimal.Decimal  { return Lamports(int64(b.PostLamports)) }
func (b BalanceChange) Delta() decimal.Decimal { return Lamports(b.DeltaLamports) }

// Significant reports whether the change exceeds 0.000001 SOL in either
// direction.
func (b BalanceChange) Significant() bool {
	return b.DeltaLamports > significantLamports || b.DeltaLamports < -significantLamports
}

// Transaction is the resolved detail of one signature. It is built once by
// New and not modified afterwards.
type Transaction struct {
	Signature   Signature  `json:"signature"`
	Timestamp   *time.Time `json:"timestamp"`
	Slot        uint64     `json:"slot"`
	FeeLamports uint64     `json:"fee_lamports"`
	Status      Status     `json:"status"`

	AccountKeys    []string        `json:"account_keys"`
	BalanceChanges []BalanceChange `json:"balance_changes"`

	Type                   Type     `json:"type"`
	ProgramIDs             []string `json:"program_ids"`
	FromAccount            string   `json:"from_account,omitempty"`
	ToAccount              string   `json:"to_account,omitempty"`
	TransferAmountLamports int64    `json:"transfer_amount_lamports"`
}

type Params struct {
	Signature    Signature
	BlockTime    *int64
	Slot         uint64
	FeeLamports  uint64
	Failed       bool
	AccountKeys  []string
	PreBalances  []uint64
	PostBalances []uint64
}

func New(p Params) (*Transaction, error) {
	if p.Signature == "" {
		return nil, errors.New("invalid signature")
	}
	if len(p.AccountKeys) == 0 {
		return nil, errors.New("invalid account keys")
	}

	tx := &Transaction{
		Signature:   p.Signature,
		Slot:        p.Slot,
		FeeLamports: p.FeeLamports,
		Status:      StatusSuccess,
		AccountKeys: append([]string(nil), p.AccountKeys...),
	}

	if p.Failed {
		tx.Status = StatusFailed
	}

	if p.BlockTime != nil {
		ts := time.Unix(*p.BlockTime, 0).UTC()
		tx.Timestamp = &ts
	}

	tx.BalanceChanges = make([]BalanceChange, 0, len(p.AccountKeys))
	for i, account := range p.AccountKeys {
		if i >= len(p.PreBalances) || i >= len(p.PostBalances) {
			continue
		}

		pre, post := p.PreBalances[i], p.PostBalances[i]
		change := BalanceChange{
			Account:       account,
			PreLamports:   pre,
			PostLamports:  post,
			DeltaLamports: int64(post) - int64(pre),
		}
		tx.BalanceChanges = append(tx.BalanceChanges, change)

		switch {
		case change.DeltaLamports < -significantLamports:
			tx.FromAccount = account
			tx.TransferAmountLamports = -change.DeltaLamports - int64(p.FeeLamports)
		case change.DeltaLamports > significantLamports:
			tx.ToAccount = account
		}
	}

	tx.classify()

	return tx, nil
}

func (t *Transaction) classify() {
	system := solana.SystemProgramID.String()
	token := solana.TokenProgramID.String()

	t.ProgramIDs = []string{}
	t.Type = TypeContractCall

	if t.mentions(system) {
		t.ProgramIDs = append(t.ProgramIDs, system)
		if t.TransferAmountLamports > 0 {
			t.Type = TypeSolTransfer
		} else {
			t.Type = TypeSystemOperation
		}
	}

	if t.mentions(token) {
		t.ProgramIDs = append(t.ProgramIDs, token)
		t.Type = TypeTokenTransfer
	}
}

func (t *Transaction) mentions(account string) bool {
	for _, key := range t.AccountKeys {
		if key == account {
			return true
		}
	}
	return false
}

func (t *Transaction) Fee() decimal.Decimal {
	return Lamports(int64(t.FeeLamports))
}

func (t *Transaction) TransferAmount() decimal.Decimal {
	return Lamports(t.TransferAmountLamports)
}

func (t *Transaction) IsTransfer() bool {
	return t.FromAccount != "" && t.ToAccount != "" && t.TransferAmountLamports > 0
}

func (t *Transaction) TimestampString() string {
	if t.Timestamp == nil {
		return UnknownTimestamp
	}
	return t.Timestamp.Format(TimestampLayout)
}

func (t *Transaction) String() string {
	return fmt.Sprintf("%s slot=%d status=%s fee=%s SOL", t.Signature, t.Slot, t.Status, t.Fee().String())
}

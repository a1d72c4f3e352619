package history_test

import (
	"testing"

	"solana-wallet-monitor/services/history"
	"solana-wallet-monitor/services/transaction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

func newTransaction(t *testing.T, signature transaction.Signature) *transaction.Transaction {
	t.Helper()
	blockTime := int64(1700000000)
	tx, err := transaction.New(transaction.Params{
		Signature:    signature,
		BlockTime:    &blockTime,
		Slot:         5208469,
		FeeLamports:  5000,
		AccountKeys:  []string{wallet, "11111111111111111111111111111111"},
		PreBalances:  []uint64{100, 50},
		PostBalances: []uint64{40, 110},
	})
	require.NoError(t, err)
	return tx
}

func TestNewRecord(t *testing.T) {
	tests := []struct {
		name   string
		tx     *transaction.Transaction
		expect func(*testing.T, *history.Record, error)
	}{
		{
			name: "should copy transaction",
			tx:   newTransaction(t, "sigA"),
			expect: func(t *testing.T, r *history.Record, err error) {
				require.NoError(t, err)
				assert.Equal(t, "sigA", r.Signature)
				assert.Equal(t, uint64(5208469), r.Slot)
				assert.Equal(t, uint64(5000), r.FeeLamports)
				assert.Equal(t, "SUCCESS", r.Status)
				assert.Equal(t, "SYSTEM_OPERATION", r.Type)
				assert.Equal(t, "2023-11-14 22:13:20 +0000 UTC", r.Timestamp.String())
				assert.Equal(t, []history.BalanceChange{
					{Account: wallet, PreLamports: 100, PostLamports: 40, DeltaLamports: -60},
					{Account: "11111111111111111111111111111111", PreLamports: 50, PostLamports: 110, DeltaLamports: 60},
				}, r.BalanceChanges)
				assert.Equal(t, 3, r.Position)
				assert.False(t, r.CreatedAt.IsZero())
				assert.True(t, r.ID.IsZero())
			},
		},
		{
			name: "should return transaction error",
			expect: func(t *testing.T, r *history.Record, err error) {
				assert.Nil(t, r)
				assert.EqualError(t, err, "invalid transaction")
			},
		},
		{
			name: "should return signature error",
			tx:   &transaction.Transaction{},
			expect: func(t *testing.T, r *history.Record, err error) {
				assert.Nil(t, r)
				assert.EqualError(t, err, "invalid signature")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := history.NewRecord(tc.tx, 3)
			tc.expect(t, r, err)
		})
	}
}

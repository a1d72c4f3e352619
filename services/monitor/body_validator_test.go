package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		req    WatchRequest
		expect func(*testing.T, error)
	}{
		{
			name: "should accept valid address",
			req:  WatchRequest{Address: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", Max: 10},
			expect: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "should accept system program address",
			req:  WatchRequest{Address: "11111111111111111111111111111111"},
			expect: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "should reject empty address",
			req:  WatchRequest{},
			expect: func(t *testing.T, err error) {
				assert.EqualError(t, err, "Address - is required")
			},
		},
		{
			name: "should reject hex address",
			req:  WatchRequest{Address: "0x6a8e8b2b6c3a3f0e1d8b7c2a4b5e6f7a8b9c0d1e"},
			expect: func(t *testing.T, err error) {
				assert.EqualError(t, err, "Address - incorrect address")
			},
		},
		{
			name: "should reject negative max",
			req:  WatchRequest{Address: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", Max: -1},
			expect: func(t *testing.T, err error) {
				assert.EqualError(t, err, "Max - must not be negative")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.expect(t, Validate(tc.req))
		})
	}
}

func TestValidateInvalidInput(t *testing.T) {
	assert.EqualError(t, Validate(nil), "invalid request")
}

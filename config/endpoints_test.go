package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		expect func(*testing.T, Config, error)
	}{
		{
			name: "should use network preset",
			cfg:  Config{Solana: Solana{Network: MAINNET}},
			expect: func(t *testing.T, c Config, err error) {
				assert.NoError(t, err)
				assert.Equal(t, "https://api.mainnet-beta.solana.com", c.RpcUrl)
				assert.Equal(t, "wss://api.mainnet-beta.solana.com", c.WsUrl)
			},
		},
		{
			name: "should keep explicit urls",
			cfg:  Config{Solana: Solana{Network: LOCAL, RpcUrl: "http://node:8899", WsUrl: "ws://node:8900"}},
			expect: func(t *testing.T, c Config, err error) {
				assert.NoError(t, err)
				assert.Equal(t, "http://node:8899", c.RpcUrl)
				assert.Equal(t, "ws://node:8900", c.WsUrl)
			},
		},
		{
			name: "should reject unknown network",
			cfg:  Config{Solana: Solana{Network: "moonnet"}},
			expect: func(t *testing.T, c Config, err error) {
				assert.Error(t, err)
				assert.Empty(t, c.RpcUrl)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := cfg.resolveEndpoints()
			tc.expect(t, cfg, err)
		})
	}
}

func TestUseNetwork(t *testing.T) {
	cfg := Config{Solana: Solana{Network: LOCAL, RpcUrl: "http://node:8899", WsUrl: "ws://node:8900"}}

	assert.NoError(t, cfg.UseNetwork(MAINNET))
	assert.Equal(t, MAINNET, cfg.Network)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RpcUrl)
	assert.Equal(t, "wss://api.mainnet-beta.solana.com", cfg.WsUrl)

	assert.Error(t, cfg.UseNetwork("moonnet"))
	assert.Equal(t, MAINNET, cfg.Network)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RpcUrl)
}

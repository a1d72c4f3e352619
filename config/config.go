package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	MAINNET = "mainnet"
	DEVNET  = "devnet"
	TESTNET = "testnet"
	LOCAL   = "local"
)

type Endpoint struct {
	RPC       string
	WebSocket string
}

var Endpoints = map[string]Endpoint{
	MAINNET: {RPC: "https://api.mainnet-beta.solana.com", WebSocket: "wss://api.mainnet-beta.solana.com"},
	DEVNET:  {RPC: "https://api.devnet.solana.com", WebSocket: "wss://api.devnet.solana.com"},
	TESTNET: {RPC: "https://api.testnet.solana.com", WebSocket: "wss://api.testnet.solana.com"},
	LOCAL:   {RPC: "http://localhost:8899", WebSocket: "ws://localhost:8900"},
}

type Config struct {
	Environment string `required:"true" envconfig:"APP_ENV"`
	Port        string `default:"5000" envconfig:"PORT"`

	Solana
	Monitor
	MongoDb
	Firebase
}

type Solana struct {
	Network    string `default:"devnet" envconfig:"NETWORK"`
	RpcUrl     string `envconfig:"RPC_URL"`
	WsUrl      string `envconfig:"WS_URL"`
	Commitment string `default:"finalized" envconfig:"COMMITMENT"`
}

type Monitor struct {
	WalletAddress   string        `envconfig:"WALLET_ADDRESS"`
	MaxTransactions int           `default:"0" envconfig:"MAX_TRANSACTIONS"`
	MaxAttempts     int           `default:"3" envconfig:"MAX_ATTEMPTS"`
	RateLimitDelay  time.Duration `default:"100ms" envconfig:"RATE_LIMIT_DELAY"`
	RequestTimeout  time.Duration `default:"30s" envconfig:"REQUEST_TIMEOUT"`
	DialTimeout     time.Duration `default:"10s" envconfig:"DIAL_TIMEOUT"`
	IdleTimeout     time.Duration `default:"1000s" envconfig:"IDLE_TIMEOUT"`
	Pacing          time.Duration `default:"0s" envconfig:"PACING"`
}

type MongoDb struct {
	MongoDbName string `default:"solana_monitor" envconfig:"MONGO_DB_NAME"`
	MongoDbUrl  string `envconfig:"MONGO_DB_URL"`
}

type Firebase struct {
	CredPath           string `envconfig:"FIREBASE_CRED_PATH"`
	AndroidChannelName string `envconfig:"ANDROID_CHANNEL_NAME"`
	PushToken          string `envconfig:"PUSH_TOKEN"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() (*Config, error) {
	var err error
	once.Do(func() {
		var cfg Config
		_ = godotenv.Load(".env")

		if err = envconfig.Process("", &cfg); err != nil {
			return
		}

		if err = cfg.resolveEndpoints(); err != nil {
			return
		}

		config = &cfg
	})

	return config, err
}

// resolveEndpoints fills RpcUrl and WsUrl from the network preset unless they
// were set explicitly.
func (c *Config) resolveEndpoints() error {
	endpoint, ok := Endpoints[c.Network]
	if !ok {
		return fmt.Errorf("network must be one of %q, %q, %q or %q, got %q", DEVNET, TESTNET, MAINNET, LOCAL, c.Network)
	}

	if c.RpcUrl == "" {
		c.RpcUrl = endpoint.RPC
	}
	if c.WsUrl == "" {
		c.WsUrl = endpoint.WebSocket
	}

	return nil
}

// UseNetwork switches to another network preset, replacing any explicit
// RPC and websocket URLs.
func (c *Config) UseNetwork(network string) error {
	previous := *c

	c.Network = network
	c.RpcUrl, c.WsUrl = "", ""
	if err := c.resolveEndpoints(); err != nil {
		*c = previous
		return err
	}

	return nil
}

func (c *Config) PersistenceEnabled() bool {
	return c.MongoDbUrl != ""
}

func (c *Config) PushEnabled() bool {
	return c.CredPath != "" && c.AndroidChannelName != "" && c.PushToken != ""
}

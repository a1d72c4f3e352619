package mongodb

import (
	"context"
	"errors"
	"time"

	"solana-wallet-monitor/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// NewConnection creates a client for cfg.MongoDbUrl. The driver connects
// lazily, use Ping to check that the server is reachable.
func NewConnection(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	if cfg == nil {
		return nil, errors.New("[mongodb] invalid config")
	}
	if cfg.MongoDbUrl == "" {
		return nil, errors.New("[mongodb] invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoDbUrl).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	return mongo.Connect(ctx, opts)
}

func Ping(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	return client.Ping(ctx, readpref.Primary())
}

func Close(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	return client.Disconnect(ctx)
}

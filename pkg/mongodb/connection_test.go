package mongodb_test

import (
	"context"
	"testing"

	"solana-wallet-monitor/config"
	"solana-wallet-monitor/pkg/mongodb"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNewConnection(t *testing.T) {
	tests := []struct {
		name   string
		config *config.Config
		expect func(*testing.T, *mongo.Client, error)
	}{
		{
			name: "should return mongo",
			config: &config.Config{
				MongoDb: config.MongoDb{
					MongoDbName: "Test",
					MongoDbUrl:  "mongodb://localhost:27017",
				},
			},
			expect: func(t *testing.T, client *mongo.Client, err error) {
				assert.NotNil(t, client)
				assert.NoError(t, err)
				assert.NoError(t, mongodb.Close(context.Background(), client))
			},
		},
		{
			name:   "should return config error",
			config: nil,
			expect: func(t *testing.T, client *mongo.Client, err error) {
				assert.Nil(t, client)
				assert.EqualError(t, err, "[mongodb] invalid config")
			},
		},
		{
			name:   "should return url error",
			config: &config.Config{},
			expect: func(t *testing.T, client *mongo.Client, err error) {
				assert.Nil(t, client)
				assert.EqualError(t, err, "[mongodb] invalid url")
			},
		},
		{
			name: "should return parse error",
			config: &config.Config{
				MongoDb: config.MongoDb{MongoDbUrl: "localhost:27017"},
			},
			expect: func(t *testing.T, client *mongo.Client, err error) {
				assert.Nil(t, client)
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := mongodb.NewConnection(context.Background(), tc.config)
			tc.expect(t, client, err)
		})
	}
}

func TestCloseNil(t *testing.T) {
	assert.NoError(t, mongodb.Close(context.Background(), nil))
}

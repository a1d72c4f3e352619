package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-wallet-monitor/services/history"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const CollectionName = "migrations"

type Migration struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	IsApplied bool               `json:"is_applied" bson:"is_applied"`
	AppliedAt time.Time          `json:"applied_at" bson:"applied_at"`
}

type step struct {
	name string
	run  func(ctx context.Context, db *mongo.Database) error
}

// steps run in order, each at most once per database.
var steps = []step{
	{name: "transaction_indexes", run: transactionIndexes},
	{name: "session_indexes", run: sessionIndexes},
}

func RunMigrations(ctx context.Context, db *mongo.Client, dbName string, logger *zap.SugaredLogger) error {
	if db == nil {
		return errors.New("[migration] invalid database")
	}
	if dbName == "" {
		return errors.New("[migration] invalid database name")
	}
	if logger == nil {
		return errors.New("[migration] invalid logger")
	}

	database := db.Database(dbName)
	migrations := database.Collection(CollectionName)

	for _, s := range steps {
		var applied Migration
		err := migrations.FindOne(ctx, bson.M{"name": s.name, "is_applied": true}).Decode(&applied)
		if err == nil {
			logger.Debugf("migration %s already applied", s.name)
			continue
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("lookup migration %s: %w", s.name, err)
		}

		logger.Infof("applying migration %s", s.name)
		if err := s.run(ctx, database); err != nil {
			return fmt.Errorf("migration %s: %w", s.name, err)
		}

		if _, err := migrations.InsertOne(ctx, &Migration{
			Name:      s.name,
			IsApplied: true,
			AppliedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("mark migration %s: %w", s.name, err)
		}
	}

	return nil
}

func transactionIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(history.TransactionsCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "signature", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "slot", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "session_id", Value: 1},
				{Key: "position", Value: 1},
			},
		},
	})
	return err
}

func sessionIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(history.SessionsCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "subject", Value: 1},
				{Key: "started_at", Value: -1},
			},
		},
	})
	return err
}

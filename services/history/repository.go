package history

import (
	"context"
	"errors"
	"time"

	"solana-wallet-monitor/services/monitor"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	TransactionsCollectionName = "transactions"
	SessionsCollectionName     = "sessions"

	pageSize = 100
)

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go
type Repository interface {
	GetTransaction(ctx context.Context, filters bson.M) (*Record, error)
	GetTransactionList(ctx context.Context, filters bson.M, page int) ([]*Record, error)
	SaveTransaction(ctx context.Context, record *Record) error

	GetReport(ctx context.Context, sessionID string) (*monitor.Report, error)
	SaveReport(ctx context.Context, report monitor.Report) error
}

type repository struct {
	db                         *mongo.Client
	dbName                     string
	transactionsCollectionName string
	sessionsCollectionName     string
	logger                     *zap.SugaredLogger
}

func NewRepository(db *mongo.Client, dbName string, logger *zap.SugaredLogger) (Repository, error) {
	if db == nil {
		return nil, errors.New("[history_repository] invalid database")
	}
	if dbName == "" {
		return nil, errors.New("[history_repository] invalid database name")
	}
	if logger == nil {
		return nil, errors.New("[history_repository] invalid logger")
	}

	return &repository{
		db:                         db,
		dbName:                     dbName,
		transactionsCollectionName: TransactionsCollectionName,
		sessionsCollectionName:     SessionsCollectionName,
		logger:                     logger,
	}, nil
}

func (r *repository) GetTransaction(ctx context.Context, filters bson.M) (*Record, error) {
	collection := r.db.Database(r.dbName).Collection(r.transactionsCollectionName)

	var record Record
	if err := collection.FindOne(ctx, filters).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Errorf("unable to find transaction due to internal error: %v", err)
		return nil, err
	}

	return &record, nil
}

// GetTransactionList returns one page of records, newest slot first. Pages
// start at 1.
func (r *repository) GetTransactionList(ctx context.Context, filters bson.M, page int) ([]*Record, error) {
	if page < 1 {
		page = 1
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "slot", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(pageSize)

	cur, err := r.db.Database(r.dbName).Collection(r.transactionsCollectionName).Find(ctx, filters, findOptions)
	if err != nil {
		r.logger.Errorf("unable to find transactions due to internal error: %v", err)
		return nil, err
	}
	defer cur.Close(ctx)

	var records []*Record
	if err := cur.All(ctx, &records); err != nil {
		r.logger.Errorf("unable to decode transactions: %v", err)
		return nil, err
	}

	return records, nil
}

// SaveTransaction inserts record or updates the stored one with the same
// signature. created_at keeps the time of the first write.
func (r *repository) SaveTransaction(ctx context.Context, record *Record) error {
	if record == nil || record.Signature == "" {
		return errors.New("invalid transaction record")
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	fields := *record
	fields.ID = primitive.NilObjectID
	fields.CreatedAt = time.Time{}

	_, err := r.db.Database(r.dbName).Collection(r.transactionsCollectionName).UpdateOne(ctx,
		bson.M{"signature": record.Signature},
		bson.M{"$set": fields, "$setOnInsert": bson.M{"created_at": createdAt}},
		options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Errorf("failed to save transaction %s: %v", record.Signature, err)
		return errors.New("failed to save transaction")
	}

	return nil
}

func (r *repository) GetReport(ctx context.Context, sessionID string) (*monitor.Report, error) {
	collection := r.db.Database(r.dbName).Collection(r.sessionsCollectionName)

	var report monitor.Report
	if err := collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		r.logger.Errorf("unable to find session report due to internal error: %v", err)
		return nil, err
	}

	return &report, nil
}

func (r *repository) SaveReport(ctx context.Context, report monitor.Report) error {
	if report.SessionID == "" {
		return errors.New("invalid session report")
	}

	_, err := r.db.Database(r.dbName).Collection(r.sessionsCollectionName).ReplaceOne(ctx,
		bson.M{"session_id": report.SessionID},
		report,
		options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Errorf("failed to save session report %s: %v", report.SessionID, err)
		return errors.New("failed to save session report")
	}

	return nil
}

package history

import (
	"context"
	"errors"
	"time"

	"solana-wallet-monitor/services/monitor"
	"solana-wallet-monitor/services/transaction"

	"go.uber.org/zap"
)

// Archive is a monitor sink that stores every resolved transaction and the
// final session report.
type Archive struct {
	repository   Repository
	writeTimeout time.Duration
	logger       *zap.SugaredLogger
}

func NewArchive(repository Repository, writeTimeout time.Duration, logger *zap.SugaredLogger) (*Archive, error) {
	if repository == nil {
		return nil, errors.New("[history_archive] invalid repository")
	}
	if writeTimeout <= 0 {
		return nil, errors.New("[history_archive] invalid write timeout")
	}
	if logger == nil {
		return nil, errors.New("[history_archive] invalid logger")
	}

	return &Archive{repository: repository, writeTimeout: writeTimeout, logger: logger}, nil
}

func (a *Archive) Present(ctx context.Context, tx *transaction.Transaction, unique int) {
	record, err := NewRecord(tx, unique)
	if err != nil {
		a.logger.Warnf("skipping archive of transaction: %v", err)
		return
	}

	if info, ok := monitor.SessionFromContext(ctx); ok {
		record.SetSession(info.ID, info.Subject)
	}

	ctx, cancel := context.WithTimeout(ctx, a.writeTimeout)
	defer cancel()

	if err := a.repository.SaveTransaction(ctx, record); err != nil {
		a.logger.Warnf("archive of %s failed: %v", record.Signature, err)
	}
}

func (a *Archive) Finish(ctx context.Context, report monitor.Report) {
	ctx, cancel := context.WithTimeout(ctx, a.writeTimeout)
	defer cancel()

	if err := a.repository.SaveReport(ctx, report); err != nil {
		a.logger.Warnf("archive of session report %s failed: %v", report.SessionID, err)
	}
}

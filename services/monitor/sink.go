package monitor

import (
	"context"

	"solana-wallet-monitor/services/transaction"
)

//go:generate mockgen -source=sink.go -destination=mocks/sink_mock.go
type Sink interface {
	// Present receives a resolved transaction together with the number of
	// unique signatures seen so far. Implementations must return promptly.
	Present(ctx context.Context, tx *transaction.Transaction, unique int)
}

// Finisher is implemented by sinks that want the final session report.
type Finisher interface {
	Finish(ctx context.Context, report Report)
}

// FanOut hands every record to each sink in order.
type FanOut []Sink

func (f FanOut) Present(ctx context.Context, tx *transaction.Transaction, unique int) {
	for _, sink := range f {
		if sink != nil {
			sink.Present(ctx, tx, unique)
		}
	}
}

func (f FanOut) Finish(ctx context.Context, report Report) {
	for _, sink := range f {
		if finisher, ok := sink.(Finisher); ok {
			finisher.Finish(ctx, report)
		}
	}
}

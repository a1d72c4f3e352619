package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"solana-wallet-monitor/services/resolver"
	"solana-wallet-monitor/services/stream"
	"solana-wallet-monitor/services/transaction"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrAlreadyStarted = errors.New("session already started")

type Policy struct {
	// MaxAttempts bounds resolve calls per signature. Zero means
	// DefaultMaxAttempts.
	MaxAttempts int
	// Target is the number of unique signatures after which the session
	// completes. Zero keeps monitoring until the stream fails or ctx is done.
	Target int
	// Pacing is an extra pause after every resolved transaction.
	Pacing  time.Duration
	Backoff BackoffFunc
}

type Report struct {
	SessionID  string     `json:"session_id" bson:"session_id"`
	Subject    string     `json:"subject" bson:"subject"`
	State      State      `json:"state" bson:"state"`
	Target     int        `json:"target" bson:"target"`
	Unique     int        `json:"unique" bson:"unique"`
	Duplicates int        `json:"duplicates" bson:"duplicates"`
	Resolved   int        `json:"resolved" bson:"resolved"`
	Dropped    int        `json:"dropped" bson:"dropped"`
	StartedAt  time.Time  `json:"started_at" bson:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
	Err        string     `json:"error,omitempty" bson:"error,omitempty"`
}

func (r Report) TargetReached() bool {
	return r.Target > 0 && r.Unique >= r.Target
}

type Session struct {
	source   stream.Subscriber
	resolver resolver.Resolver
	sink     Sink
	policy   Policy
	logger   *zap.SugaredLogger

	seen *SeenSet

	mx      sync.RWMutex
	report  Report
	started bool

	teardownOnce sync.Once
}

func NewSession(subject string, source stream.Subscriber, res resolver.Resolver, sink Sink, policy Policy, logger *zap.SugaredLogger) (*Session, error) {
	if subject == "" {
		return nil, errors.New("[monitor_session] invalid subject")
	}
	if source == nil {
		return nil, errors.New("[monitor_session] invalid event source")
	}
	if res == nil {
		return nil, errors.New("[monitor_session] invalid resolver")
	}
	if sink == nil {
		return nil, errors.New("[monitor_session] invalid sink")
	}
	if logger == nil {
		return nil, errors.New("[monitor_session] invalid logger")
	}
	if policy.Target < 0 {
		return nil, errors.New("[monitor_session] invalid target")
	}

	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.Backoff == nil {
		policy.Backoff = DefaultBackoff
	}

	id := uuid.NewString()

	return &Session{
		source:   source,
		resolver: res,
		sink:     sink,
		policy:   policy,
		logger:   logger.With("session", id),
		seen:     NewSeenSet(),
		report: Report{
			SessionID: id,
			Subject:   subject,
			State:     Idle,
			Target:    policy.Target,
		},
	}, nil
}

func (s *Session) ID() string {
	return s.report.SessionID
}

func (s *Session) State() State {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.report.State
}

// Snapshot returns a copy of the current report. Safe to call while Run is
// in progress.
func (s *Session) Snapshot() Report {
	s.mx.RLock()
	defer s.mx.RUnlock()

	return s.report
}

// Run drives the session until it completes, fails or ctx is cancelled. The
// returned error is set only for Failed sessions. The event source is closed
// exactly once before Run returns.
func (s *Session) Run(ctx context.Context) (Report, error) {
	s.mx.Lock()
	if s.started {
		s.mx.Unlock()
		return s.Snapshot(), ErrAlreadyStarted
	}
	s.started = true
	s.report.StartedAt = time.Now().UTC()
	info := SessionInfo{ID: s.report.SessionID, Subject: s.report.Subject}
	s.mx.Unlock()

	ctx = WithSession(ctx, info)

	report, err := s.run(ctx)
	s.teardown()

	if finisher, ok := s.sink.(Finisher); ok {
		finisher.Finish(context.WithoutCancel(ctx), report)
	}

	return report, err
}

func (s *Session) run(ctx context.Context) (Report, error) {
	subject := s.Snapshot().Subject

	s.setState(Subscribing)
	if err := s.source.Subscribe(ctx, subject); err != nil {
		if ctx.Err() != nil {
			return s.finish(Cancelled, nil)
		}
		return s.finish(Failed, fmt.Errorf("subscribe: %w", err))
	}

	s.setState(Listening)
	s.logger.Infof("listening for transactions of %s", subject)

	for {
		if s.Snapshot().TargetReached() {
			return s.finish(Completed, nil)
		}

		notification, err := s.source.Next(ctx)
		if ctx.Err() != nil {
			return s.finish(Cancelled, nil)
		}
		if err != nil {
			// a reached target returns above, so a closed stream here is incomplete
			return s.finish(Failed, err)
		}

		if !s.seen.Add(notification.Signature) {
			s.update(func(r *Report) { r.Duplicates++ })
			s.logger.Debugf("duplicate signature %s skipped", notification.Signature)
			continue
		}

		var unique int
		s.update(func(r *Report) {
			r.Unique++
			unique = r.Unique
			r.State = ResolvingDetail
		})

		tx, err := s.resolve(ctx, notification.Signature)
		if ctx.Err() != nil {
			return s.finish(Cancelled, nil)
		}

		if err != nil {
			s.update(func(r *Report) { r.Dropped++ })
			s.logger.Warnf("dropping %s: %v", notification.Signature, err)
			s.setState(Listening)
			continue
		}

		s.update(func(r *Report) { r.Resolved++ })
		s.sink.Present(ctx, tx, unique)

		if s.policy.Pacing > 0 && !s.Snapshot().TargetReached() {
			if err := sleep(ctx, s.policy.Pacing); err != nil {
				return s.finish(Cancelled, nil)
			}
		}

		s.setState(Listening)
	}
}

// resolve calls the resolver until it succeeds, returns a non-retryable
// error or MaxAttempts calls were made.
func (s *Session) resolve(ctx context.Context, signature transaction.Signature) (*transaction.Transaction, error) {
	retry := RetryState{Signature: signature, MaxAttempts: s.policy.MaxAttempts}

	for {
		tx, err := s.resolver.Resolve(ctx, signature)
		if err == nil {
			return tx, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retry.Record(err)

		if !resolver.IsRetryable(err) {
			return nil, err
		}
		if retry.Exhausted() {
			return nil, fmt.Errorf("giving up after %d attempts: %w", retry.Attempts, err)
		}

		wait := s.policy.Backoff(retry.Attempts, err)
		s.logger.Debugf("attempt %d/%d for %s failed: %v, retrying in %s", retry.Attempts, retry.MaxAttempts, signature, err, wait)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (s *Session) finish(state State, err error) (Report, error) {
	now := time.Now().UTC()

	s.update(func(r *Report) {
		r.State = state
		r.FinishedAt = &now
		if err != nil {
			r.Err = err.Error()
		}
	})

	report := s.Snapshot()

	switch state {
	case Failed:
		s.logger.Errorf("session failed after %d unique transactions: %v", report.Unique, err)
	default:
		s.logger.Infof("session %s: unique=%d resolved=%d dropped=%d duplicates=%d",
			state, report.Unique, report.Resolved, report.Dropped, report.Duplicates)
	}

	return report, err
}

func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		if err := s.source.Close(); err != nil {
			s.logger.Warnf("closing event source: %v", err)
		}
	})
}

func (s *Session) setState(state State) {
	s.update(func(r *Report) {
		r.State = state
	})
}

func (s *Session) update(fn func(r *Report)) {
	s.mx.Lock()
	defer s.mx.Unlock()

	fn(&s.report)
}

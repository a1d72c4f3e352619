package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"

	"solana-wallet-monitor/services/resolver"
	"solana-wallet-monitor/services/stream"

	"go.uber.org/zap"
)

var (
	ErrSessionRunning = errors.New("a monitoring session is already running")
	ErrNoSession      = errors.New("no monitoring session")
)

type WatchRequest struct {
	Address string `json:"address" validate:"required,address"`
	Max     int    `json:"max" validate:"gte=0"`
}

type Status struct {
	Session  Report         `json:"session"`
	Requests resolver.Stats `json:"requests"`
}

// SubscriberFactory opens a fresh event source for every session.
type SubscriberFactory func() (stream.Subscriber, error)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go
type Service interface {
	Watch(ctx context.Context, req WatchRequest) (Report, error)
	Status() (*Status, error)
}

type service struct {
	newSubscriber SubscriberFactory
	resolver      resolver.Resolver
	sink          Sink
	policy        Policy
	logger        *zap.SugaredLogger

	mx      sync.RWMutex
	current *Session
}

func NewService(newSubscriber SubscriberFactory, res resolver.Resolver, sink Sink, policy Policy, logger *zap.SugaredLogger) (Service, error) {
	if newSubscriber == nil {
		return nil, errors.New("[monitor_service] invalid subscriber factory")
	}
	if res == nil {
		return nil, errors.New("[monitor_service] invalid resolver")
	}
	if sink == nil {
		return nil, errors.New("[monitor_service] invalid sink")
	}
	if logger == nil {
		return nil, errors.New("[monitor_service] invalid logger")
	}

	return &service{
		newSubscriber: newSubscriber,
		resolver:      res,
		sink:          sink,
		policy:        policy,
		logger:        logger,
	}, nil
}

// Watch runs one monitoring session for req.Address and blocks until it ends.
// A positive req.Max overrides the configured target.
func (s *service) Watch(ctx context.Context, req WatchRequest) (Report, error) {
	req.Address = strings.TrimSpace(req.Address)

	if err := Validate(req); err != nil {
		return Report{}, err
	}

	policy := s.policy
	if req.Max > 0 {
		policy.Target = req.Max
	}

	source, err := s.newSubscriber()
	if err != nil {
		return Report{}, err
	}

	session, err := NewSession(req.Address, source, s.resolver, s.sink, policy, s.logger)
	if err != nil {
		_ = source.Close()
		return Report{}, err
	}

	s.mx.Lock()
	if s.current != nil && !s.current.State().Terminal() {
		s.mx.Unlock()
		_ = source.Close()
		return Report{}, ErrSessionRunning
	}
	s.current = session
	s.mx.Unlock()

	s.logger.Infof("starting session %s for %s, target %d", session.ID(), req.Address, policy.Target)

	report, err := session.Run(ctx)

	stats := s.resolver.Stats()
	s.logger.Infof("requests: total=%d successful=%d failed=%d success rate=%.1f%%",
		stats.Total, stats.Successful, stats.Failed, stats.SuccessRate())

	return report, err
}

func (s *service) Status() (*Status, error) {
	s.mx.RLock()
	session := s.current
	s.mx.RUnlock()

	if session == nil {
		return nil, ErrNoSession
	}

	return &Status{Session: session.Snapshot(), Requests: s.resolver.Stats()}, nil
}

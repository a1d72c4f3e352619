package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"solana-wallet-monitor/services/transaction"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnection   = errors.New("websocket connection failed")
	ErrSubscription = errors.New("logs subscription rejected")
	ErrStreamClosed = errors.New("logs stream closed")

	errNotSubscribed     = errors.New("subscriber is not subscribed")
	errAlreadySubscribed = errors.New("subscriber is already subscribed")
	errClosedByClient    = errors.New("closed by client")
)

const (
	subscribeRequestID   = 1
	unsubscribeRequestID = 2
	frameBufferSize      = 64
	writeTimeout         = 5 * time.Second
)

type Notification struct {
	Signature transaction.Signature
	Slot      uint64
	// Failed mirrors the err field of the notification. The resolved
	// transaction status stays authoritative.
	Failed bool
}

//go:generate mockgen -source=stream.go -destination=mocks/stream_mock.go
type Subscriber interface {
	Subscribe(ctx context.Context, subject string) error
	Next(ctx context.Context) (Notification, error)
	Close() error
}

type Options struct {
	Endpoint         string
	Commitment       string
	DialTimeout      time.Duration
	SubscribeTimeout time.Duration
	IdleTimeout      time.Duration
	PingInterval     time.Duration
	Dialer           *websocket.Dialer
}

type subscriber struct {
	opts   Options
	logger *zap.SugaredLogger

	mx             sync.Mutex
	conn           *websocket.Conn
	subscriptionID uint64
	subscribed     bool
	frames         chan []byte

	errMx   sync.Mutex
	readErr error

	closeOnce sync.Once
	closed    chan struct{}
}

func NewSubscriber(opts Options, logger *zap.SugaredLogger) (Subscriber, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("[stream] invalid websocket endpoint")
	}
	if opts.DialTimeout <= 0 || opts.IdleTimeout <= 0 {
		return nil, errors.New("[stream] invalid timeouts")
	}
	if logger == nil {
		return nil, errors.New("[stream] invalid logger")
	}

	if opts.Commitment == "" {
		opts.Commitment = "finalized"
	}
	if opts.SubscribeTimeout <= 0 {
		opts.SubscribeTimeout = opts.DialTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &subscriber{opts: opts, logger: logger, closed: make(chan struct{})}, nil
}

// Subscribe connects to the endpoint and registers a logsSubscribe filter
// for transactions mentioning subject.
func (s *subscriber) Subscribe(ctx context.Context, subject string) error {
	s.mx.Lock()
	if s.conn != nil {
		s.mx.Unlock()
		return errAlreadySubscribed
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.opts.DialTimeout)
	defer cancel()

	conn, _, err := s.opts.Dialer.DialContext(dialCtx, s.opts.Endpoint, nil)
	if err != nil {
		s.mx.Unlock()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrConnection, s.opts.Endpoint, err)
	}

	s.conn = conn
	s.frames = make(chan []byte, frameBufferSize)
	s.mx.Unlock()

	in := make(chan []byte)
	go s.readLoop(conn, in)
	go s.pump(in)

	request := rpcRequest{
		JSONRPC: "2.0",
		ID:      subscribeRequestID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter{Mentions: []string{subject}},
			commitmentConfig{Commitment: s.opts.Commitment},
		},
	}

	if err := s.write(request); err != nil {
		return fmt.Errorf("%w: send subscribe request: %v", ErrConnection, err)
	}

	id, err := s.awaitSubscription(ctx)
	if err != nil {
		return err
	}

	s.mx.Lock()
	s.subscriptionID = id
	s.subscribed = true
	s.mx.Unlock()

	go s.pingLoop(conn)

	s.logger.Infof("subscribed to logs of %s, subscription id %d", subject, id)

	return nil
}

func (s *subscriber) awaitSubscription(ctx context.Context) (uint64, error) {
	timer := time.NewTimer(s.opts.SubscribeTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, fmt.Errorf("%w: no reply within %s", ErrSubscription, s.opts.SubscribeTimeout)
		case frame, ok := <-s.frames:
			if !ok {
				return 0, fmt.Errorf("%w: connection closed before reply: %v", ErrConnection, s.readError())
			}

			var reply rpcMessage
			if err := json.Unmarshal(frame, &reply); err != nil {
				s.logger.Warnf("skipping undecodable frame while subscribing: %v", err)
				continue
			}
			if reply.ID == nil || *reply.ID != subscribeRequestID {
				continue
			}
			if reply.Error != nil {
				return 0, fmt.Errorf("%w: rpc error %d: %s", ErrSubscription, reply.Error.Code, reply.Error.Message)
			}

			var id uint64
			if err := json.Unmarshal(reply.Result, &id); err != nil {
				return 0, fmt.Errorf("%w: invalid subscription id %s", ErrSubscription, string(reply.Result))
			}

			return id, nil
		}
	}
}

// Next blocks until the next logsNotification. Cancellation of ctx is
// returned as ctx.Err() and is checked before any buffered data.
func (s *subscriber) Next(ctx context.Context) (Notification, error) {
	s.mx.Lock()
	frames, subscriptionID, subscribed := s.frames, s.subscriptionID, s.subscribed
	s.mx.Unlock()

	if !subscribed {
		return Notification{}, errNotSubscribed
	}

	idle := time.NewTimer(s.opts.IdleTimeout)
	defer idle.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return Notification{}, err
		}

		select {
		case <-ctx.Done():
			return Notification{}, ctx.Err()
		case <-idle.C:
			return Notification{}, fmt.Errorf("%w: no notification within %s", ErrStreamClosed, s.opts.IdleTimeout)
		case frame, ok := <-frames:
			if !ok {
				return Notification{}, fmt.Errorf("%w: %v", ErrStreamClosed, s.readError())
			}
			if err := ctx.Err(); err != nil {
				return Notification{}, err
			}

			notification, ok, err := parseNotification(frame, subscriptionID)
			if err != nil {
				s.logger.Warnf("skipping invalid notification: %v", err)
				continue
			}
			if !ok {
				continue
			}

			return notification, nil
		}
	}
}

// Close unsubscribes and releases the connection. It is safe to call more
// than once and after the stream has failed.
func (s *subscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)

		s.mx.Lock()
		conn, subscriptionID, subscribed := s.conn, s.subscriptionID, s.subscribed
		s.mx.Unlock()

		if conn == nil {
			return
		}

		if subscribed {
			err := s.write(rpcRequest{
				JSONRPC: "2.0",
				ID:      unsubscribeRequestID,
				Method:  "logsUnsubscribe",
				Params:  []interface{}{subscriptionID},
			})
			if err != nil {
				s.logger.Debugf("logsUnsubscribe not sent: %v", err)
			} else {
				s.logger.Infof("unsubscribed from subscription id %d", subscriptionID)
			}
		}

		deadline := time.Now().Add(writeTimeout)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		if err := conn.Close(); err != nil {
			s.logger.Debugf("closing websocket: %v", err)
		}
	})

	return nil
}

func (s *subscriber) write(v interface{}) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if s.conn == nil {
		return errNotSubscribed
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

// readLoop owns all reads on conn and hands frames to pump until the
// connection fails or the subscriber is closed.
func (s *subscriber) readLoop(conn *websocket.Conn, in chan<- []byte) {
	defer close(in)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
				s.setReadErr(errClosedByClient)
			default:
				s.setReadErr(err)
			}
			return
		}

		select {
		case in <- frame:
		case <-s.closed:
			s.setReadErr(errClosedByClient)
			return
		}
	}
}

// pump queues frames between readLoop and Next without bound, so the
// connection keeps being read (and pings answered) while the caller is busy
// resolving a transaction.
func (s *subscriber) pump(in <-chan []byte) {
	defer close(s.frames)

	var queue [][]byte
	for in != nil || len(queue) > 0 {
		var (
			out  chan<- []byte
			next []byte
		)
		if len(queue) > 0 {
			out, next = s.frames, queue[0]
		}

		select {
		case frame, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, frame)
		case out <- next:
			queue[0] = nil
			queue = queue[1:]
		case <-s.closed:
			return
		}
	}
}

func (s *subscriber) setReadErr(err error) {
	s.errMx.Lock()
	defer s.errMx.Unlock()

	s.readErr = err
}

func (s *subscriber) readError() error {
	s.errMx.Lock()
	defer s.errMx.Unlock()

	if s.readErr == nil {
		return errClosedByClient
	}
	return s.readErr
}

func (s *subscriber) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				s.logger.Debugf("ping failed: %v", err)
				return
			}
		}
	}
}

func parseNotification(frame []byte, subscriptionID uint64) (Notification, bool, error) {
	var msg rpcMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Notification{}, false, err
	}

	if msg.Method != "logsNotification" || msg.Params == nil {
		return Notification{}, false, nil
	}
	if msg.Params.Subscription != subscriptionID {
		return Notification{}, false, nil
	}

	value := msg.Params.Result.Value
	if value.Signature == "" {
		return Notification{}, false, errors.New("notification without signature")
	}

	return Notification{
		Signature: transaction.Signature(value.Signature),
		Slot:      msg.Params.Result.Context.Slot,
		Failed:    value.Err != nil,
	}, true, nil
}

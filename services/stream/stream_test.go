package stream_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"solana-wallet-monitor/services/stream"
	"solana-wallet-monitor/services/transaction"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const wallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

type request struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode is a websocket endpoint speaking just enough of the logs
// subscription protocol for the tests.
type fakeNode struct {
	server   *httptest.Server
	requests chan request
}

func newFakeNode(t *testing.T, session func(conn *websocket.Conn, requests chan<- request)) *fakeNode {
	t.Helper()

	node := &fakeNode{requests: make(chan request, 16)}
	upgrader := websocket.Upgrader{}

	node.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		session(conn, node.requests)
	}))
	t.Cleanup(node.server.Close)

	return node
}

func (n *fakeNode) url() string {
	return "ws" + strings.TrimPrefix(n.server.URL, "http")
}

func readRequest(conn *websocket.Conn, requests chan<- request) (request, error) {
	var req request
	if err := conn.ReadJSON(&req); err != nil {
		return req, err
	}
	requests <- req
	return req, nil
}

func acceptSubscription(conn *websocket.Conn, requests chan<- request, id uint64) error {
	req, err := readRequest(conn, requests)
	if err != nil {
		return err
	}
	return conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": id})
}

func notify(conn *websocket.Conn, subscription uint64, signature string, failed bool) error {
	var errField interface{}
	if failed {
		errField = map[string]interface{}{}
	}
	return conn.WriteJSON(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "logsNotification",
		"params": map[string]interface{}{
			"subscription": subscription,
			"result": map[string]interface{}{
				"context": map[string]interface{}{"slot": 5208469},
				"value": map[string]interface{}{
					"signature": signature,
					"err":       errField,
					"logs":      []string{"Program 11111111111111111111111111111111 invoke [1]"},
				},
			},
		},
	})
}

// drain keeps reading until the client goes away so that unsubscribe
// requests are recorded.
func drain(conn *websocket.Conn, requests chan<- request) {
	for {
		if _, err := readRequest(conn, requests); err != nil {
			return
		}
	}
}

func newSubscriber(t *testing.T, endpoint string, idle time.Duration) stream.Subscriber {
	t.Helper()
	s, err := stream.NewSubscriber(stream.Options{
		Endpoint:    endpoint,
		DialTimeout: 2 * time.Second,
		IdleTimeout: idle,
	}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return s
}

func TestNewSubscriber(t *testing.T) {
	tests := []struct {
		name   string
		opts   stream.Options
		logger *zap.SugaredLogger
		expect func(*testing.T, stream.Subscriber, error)
	}{
		{
			name:   "should return subscriber",
			opts:   stream.Options{Endpoint: "ws://localhost:8900", DialTimeout: time.Second, IdleTimeout: time.Second},
			logger: zap.NewNop().Sugar(),
			expect: func(t *testing.T, s stream.Subscriber, err error) {
				assert.NotNil(t, s)
				assert.NoError(t, err)
			},
		},
		{
			name:   "should return endpoint error",
			opts:   stream.Options{DialTimeout: time.Second, IdleTimeout: time.Second},
			logger: zap.NewNop().Sugar(),
			expect: func(t *testing.T, s stream.Subscriber, err error) {
				assert.Nil(t, s)
				assert.EqualError(t, err, "[stream] invalid websocket endpoint")
			},
		},
		{
			name:   "should return timeouts error",
			opts:   stream.Options{Endpoint: "ws://localhost:8900"},
			logger: zap.NewNop().Sugar(),
			expect: func(t *testing.T, s stream.Subscriber, err error) {
				assert.Nil(t, s)
				assert.EqualError(t, err, "[stream] invalid timeouts")
			},
		},
		{
			name: "should return logger error",
			opts: stream.Options{Endpoint: "ws://localhost:8900", DialTimeout: time.Second, IdleTimeout: time.Second},
			expect: func(t *testing.T, s stream.Subscriber, err error) {
				assert.Nil(t, s)
				assert.EqualError(t, err, "[stream] invalid logger")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := stream.NewSubscriber(tc.opts, tc.logger)
			tc.expect(t, s, err)
		})
	}
}

func TestSubscribeAndNext(t *testing.T) {
	node := newFakeNode(t, func(conn *websocket.Conn, requests chan<- request) {
		if err := acceptSubscription(conn, requests, 24040); err != nil {
			return
		}
		_ = notify(conn, 24040, "sigA", false)
		_ = notify(conn, 99, "foreign", false)
		_ = conn.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "method": "slotNotification"})
		_ = notify(conn, 24040, "sigA", false)
		_ = notify(conn, 24040, "sigB", true)
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	})

	s := newSubscriber(t, node.url(), 5*time.Second)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Subscribe(ctx, wallet))

	req := <-node.requests
	assert.Equal(t, "logsSubscribe", req.Method)
	require.Len(t, req.Params, 2)
	assert.JSONEq(t, fmt.Sprintf(`{"mentions":[%q]}`, wallet), string(req.Params[0]))
	assert.JSONEq(t, `{"commitment":"finalized"}`, string(req.Params[1]))

	var got []stream.Notification
	for i := 0; i < 3; i++ {
		n, err := s.Next(ctx)
		require.NoError(t, err)
		got = append(got, n)
	}

	assert.Equal(t, []stream.Notification{
		{Signature: "sigA", Slot: 5208469},
		{Signature: "sigA", Slot: 5208469},
		{Signature: transaction.Signature("sigB"), Slot: 5208469, Failed: true},
	}, got)

	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, stream.ErrStreamClosed)
}

func TestSubscribeRejected(t *testing.T) {
	node := newFakeNode(t, func(conn *websocket.Conn, requests chan<- request) {
		req, err := readRequest(conn, requests)
		if err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "Invalid params: Invalid Request: Invalid pubkey provided"},
		})
		drain(conn, requests)
	})

	s := newSubscriber(t, node.url(), time.Second)

	err := s.Subscribe(context.Background(), "not-a-key")
	assert.ErrorIs(t, err, stream.ErrSubscription)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestSubscribeConnectionError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	s := newSubscriber(t, endpoint, time.Second)

	err := s.Subscribe(context.Background(), wallet)
	assert.ErrorIs(t, err, stream.ErrConnection)
	assert.NoError(t, s.Close())
}

func TestNextCancelled(t *testing.T) {
	node := newFakeNode(t, func(conn *websocket.Conn, requests chan<- request) {
		if err := acceptSubscription(conn, requests, 7); err != nil {
			return
		}
		drain(conn, requests)
	})

	s := newSubscriber(t, node.url(), time.Minute)
	defer s.Close()
	require.NoError(t, s.Subscribe(context.Background(), wallet))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	n, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, n.Signature)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNextIdleTimeout(t *testing.T) {
	node := newFakeNode(t, func(conn *websocket.Conn, requests chan<- request) {
		if err := acceptSubscription(conn, requests, 7); err != nil {
			return
		}
		drain(conn, requests)
	})

	s := newSubscriber(t, node.url(), 100*time.Millisecond)
	defer s.Close()
	require.NoError(t, s.Subscribe(context.Background(), wallet))

	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, stream.ErrStreamClosed)
}

func TestNextBeforeSubscribe(t *testing.T) {
	s := newSubscriber(t, "ws://localhost:1", time.Second)

	_, err := s.Next(context.Background())
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}

func TestCloseUnsubscribes(t *testing.T) {
	node := newFakeNode(t, func(conn *websocket.Conn, requests chan<- request) {
		if err := acceptSubscription(conn, requests, 0); err != nil {
			return
		}
		drain(conn, requests)
	})

	s := newSubscriber(t, node.url(), time.Second)
	require.NoError(t, s.Subscribe(context.Background(), wallet))
	<-node.requests

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	select {
	case req := <-node.requests:
		assert.Equal(t, "logsUnsubscribe", req.Method)
		require.Len(t, req.Params, 1)
		assert.JSONEq(t, "0", string(req.Params[0]))
	case <-time.After(2 * time.Second):
		t.Fatal("logsUnsubscribe was not sent")
	}

	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, stream.ErrStreamClosed)
}

func TestReadsContinueWhileIdle(t *testing.T) {
	const backlog = 200
	pongs := make(chan struct{}, 1)

	node := newFakeNode(t, func(conn *websocket.Conn, requests chan<- request) {
		if err := acceptSubscription(conn, requests, 11); err != nil {
			return
		}
		for i := 0; i < backlog; i++ {
			if err := notify(conn, 11, fmt.Sprintf("sig%d", i), false); err != nil {
				return
			}
		}

		conn.SetPongHandler(func(string) error {
			select {
			case pongs <- struct{}{}:
			default:
			}
			return nil
		})
		if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
			return
		}
		drain(conn, requests)
	})

	s := newSubscriber(t, node.url(), 5*time.Second)
	defer s.Close()
	require.NoError(t, s.Subscribe(context.Background(), wallet))

	// no Next call yet: the ping behind the backlog must still be answered
	select {
	case <-pongs:
	case <-time.After(3 * time.Second):
		t.Fatal("ping was not answered while notifications were pending")
	}

	for i := 0; i < backlog; i++ {
		n, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, transaction.Signature(fmt.Sprintf("sig%d", i)), n.Signature)
	}
}

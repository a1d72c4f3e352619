package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"solana-wallet-monitor/services/transaction"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	userAgent       = "SolanaWalletMonitor/2.0"
	maxResponseSize = 8 << 20

	codeInvalidParams   = -32602
	codeInternalError   = -32603
	codeTooManyRequests = -32429
)

//go:generate mockgen -source=resolver.go -destination=mocks/resolver_mock.go
type Resolver interface {
	Resolve(ctx context.Context, signature transaction.Signature) (*transaction.Transaction, error)
	Stats() Stats
}

type Stats struct {
	Total      int64 `json:"total"`
	Successful int64 `json:"successful"`
	Failed     int64 `json:"failed"`
}

func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

type Options struct {
	Endpoint       string
	Commitment     string
	RateLimitDelay time.Duration
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

type resolver struct {
	endpoint       string
	commitment     string
	requestTimeout time.Duration
	client         *http.Client
	limiter        *rate.Limiter
	validate       *validator.Validate
	logger         *zap.SugaredLogger

	requestID  atomic.Uint64
	successful atomic.Int64
	failed     atomic.Int64
}

func NewResolver(opts Options, logger *zap.SugaredLogger) (Resolver, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("[resolver] invalid rpc endpoint")
	}
	if opts.RequestTimeout <= 0 {
		return nil, errors.New("[resolver] invalid request timeout")
	}
	if logger == nil {
		return nil, errors.New("[resolver] invalid logger")
	}

	if opts.Commitment == "" {
		opts.Commitment = "finalized"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	limit := rate.Inf
	if opts.RateLimitDelay > 0 {
		limit = rate.Every(opts.RateLimitDelay)
	}

	return &resolver{
		endpoint:       opts.Endpoint,
		commitment:     opts.Commitment,
		requestTimeout: opts.RequestTimeout,
		client:         opts.HTTPClient,
		limiter:        rate.NewLimiter(limit, 1),
		validate:       validator.New(),
		logger:         logger,
	}, nil
}

// Resolve fetches and parses the transaction for signature. Every call waits
// on the shared limiter first, so requests from all callers are spaced by at
// least the configured delay.
func (r *resolver) Resolve(ctx context.Context, signature transaction.Signature) (*transaction.Transaction, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	tx, err := r.fetch(ctx, signature)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.failed.Add(1)
		return nil, err
	}

	r.successful.Add(1)
	return tx, nil
}

func (r *resolver) Stats() Stats {
	successful, failed := r.successful.Load(), r.failed.Load()
	return Stats{Total: successful + failed, Successful: successful, Failed: failed}
}

func (r *resolver) fetch(ctx context.Context, signature transaction.Signature) (*transaction.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	raw, err := r.doRequest(ctx, r.buildGetTransactionRequest(signature))
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrNotYetAvailable
	}

	var result TransactionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", ErrMalformed, err)
	}

	return r.parse(signature, &result)
}

func (r *resolver) buildGetTransactionRequest(signature transaction.Signature) rpcRequest {
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      r.requestID.Add(1),
		Method:  "getTransaction",
		Params: []interface{}{
			string(signature),
			getTransactionConfig{
				Encoding:                       "json",
				MaxSupportedTransactionVersion: 0,
				Commitment:                     r.commitment,
			},
		},
	}
}

// doRequest posts one JSON-RPC request and returns the raw result, mapping
// every failure onto the resolver error kinds.
func (r *resolver) doRequest(ctx context.Context, request rpcRequest) (json.RawMessage, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", userAgent)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	defer resp.Body.Close()

	r.logger.Debugf("getTransaction id=%d status=%d took=%s", request.ID, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: http status %d", ErrTransport, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: http status %d", ErrMalformed, resp.StatusCode)
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrMalformed, err)
	}

	if envelope.Error != nil {
		switch envelope.Error.Code {
		case codeTooManyRequests, http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, envelope.Error.Message)
		case codeInvalidParams, codeInternalError:
			return nil, fmt.Errorf("%w: rpc error %d: %s", ErrTransport, envelope.Error.Code, envelope.Error.Message)
		default:
			return nil, fmt.Errorf("%w: rpc error %d: %s", ErrMalformed, envelope.Error.Code, envelope.Error.Message)
		}
	}

	return envelope.Result, nil
}

func (r *resolver) parse(signature transaction.Signature, result *TransactionResult) (*transaction.Transaction, error) {
	if err := r.validate.Struct(result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if sigs := result.Transaction.Signatures; len(sigs) > 0 && sigs[0] != string(signature) {
		return nil, fmt.Errorf("%w: signature mismatch, got %s", ErrMalformed, sigs[0])
	}

	tx, err := transaction.New(transaction.Params{
		Signature:    signature,
		BlockTime:    result.BlockTime,
		Slot:         *result.Slot,
		FeeLamports:  *result.Meta.Fee,
		Failed:       result.Meta.Err != nil,
		AccountKeys:  result.Transaction.Message.AccountKeys,
		PreBalances:  result.Meta.PreBalances,
		PostBalances: result.Meta.PostBalances,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return tx, nil
}

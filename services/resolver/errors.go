package resolver

import "errors"

var (
	// ErrNotYetAvailable means the node has no record for the signature yet.
	// Finalized transactions usually show up after a few seconds.
	ErrNotYetAvailable = errors.New("transaction not yet available")
	ErrRateLimited     = errors.New("rate limited by rpc node")
	ErrTransport       = errors.New("rpc transport error")
	ErrMalformed       = errors.New("malformed rpc response")
)

// IsRetryable reports whether another attempt for the same signature can
// succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNotYetAvailable) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTransport)
}

package monitor

import (
	"sync"

	"solana-wallet-monitor/services/transaction"
)

// SeenSet holds every signature observed during one session.
type SeenSet struct {
	mx    sync.Mutex
	items map[transaction.Signature]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{items: make(map[transaction.Signature]struct{})}
}

// Add inserts signature and reports whether it was not present before.
// Check and insert happen under one lock.
func (s *SeenSet) Add(signature transaction.Signature) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	if _, ok := s.items[signature]; ok {
		return false
	}
	s.items[signature] = struct{}{}
	return true
}

func (s *SeenSet) Contains(signature transaction.Signature) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	_, ok := s.items[signature]
	return ok
}

func (s *SeenSet) Len() int {
	s.mx.Lock()
	defer s.mx.Unlock()

	return len(s.items)
}

package krakenauth

import (
	"strconv"
	"sync"
	"time"
)

// NonceSource hands out strictly increasing millisecond nonces.
//
// Kraken rejects a nonce that is not greater than the last one seen for the key, so
// two requests inside the same millisecond, or a clock stepping backwards, must still
// produce increasing values. Share one source per API key.
type NonceSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNonceSource returns a source backed by the wall clock.
func NewNonceSource() *NonceSource {
	return &NonceSource{now: time.Now}
}

// NewNonceSourceWithClock returns a source reading time from now.
func NewNonceSourceWithClock(now func() time.Time) *NonceSource {
	return &NonceSource{now: now}
}

// Next returns the next nonce.
func (s *NonceSource) Next() string {
	return strconv.FormatInt(s.NextInt(), 10)
}

// NextInt returns the next nonce as an integer.
func (s *NonceSource) NextInt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.now().UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}

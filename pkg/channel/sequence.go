package channel

import (
	"sync/atomic"
	"time"
)

// Sequence hands out strictly increasing random_id values. It is seeded from the clock so
// that ids stay distinct across restarts; the values are a duplicate-suppression hint, not
// a secret.
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a sequence seeded from now.
func NewSequence(now time.Time) *Sequence {
	s := &Sequence{}
	s.last.Store(now.UnixNano() / int64(time.Microsecond))
	return s
}

// Next returns the next token.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

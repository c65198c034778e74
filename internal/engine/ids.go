package engine

import (
	"strconv"
	"sync/atomic"
)

// IDSequence hands out process-unique, monotonically increasing
// client order identifiers. One sequence is shared by the order flow
// generator and the canceller so identifiers are never reused across
// message kinds.
type IDSequence struct {
	n atomic.Int64
}

// NewIDSequence creates a sequence starting at 1.
func NewIDSequence() *IDSequence {
	return &IDSequence{}
}

// Next returns the next identifier.
func (s *IDSequence) Next() string {
	return strconv.FormatInt(s.n.Add(1), 10)
}

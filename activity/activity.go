// Package activity tracks when a client last talked to the badge
package activity

import (
	"sync/atomic"
	"time"
)

// Tracker holds the last interaction time. Writers are the request handlers, readers
// are the idle teardown policy.
type Tracker struct {
	last atomic.Int64
}

func NewTracker(now time.Time) *Tracker {
	t := &Tracker{}
	t.last.Store(now.UnixNano())
	return t
}

// Touch records an interaction at now. The stored value never moves backwards.
func (t *Tracker) Touch(now time.Time) {
	n := now.UnixNano()
	for {
		prev := t.last.Load()
		if n <= prev || t.last.CompareAndSwap(prev, n) {
			return
		}
	}
}

func (t *Tracker) Last() time.Time {
	return time.Unix(0, t.last.Load())
}

// IdleFor is how long it has been since the last interaction
func (t *Tracker) IdleFor(now time.Time) time.Duration {
	return now.Sub(t.Last())
}

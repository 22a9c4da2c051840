package power

import (
	"sync/atomic"
	"time"
)

const (
	DefaultKeepAliveInterval = 10 * time.Second
	DefaultKeepAliveDuration = 200 * time.Millisecond
)

// KeepAlive burns CPU for a short burst so power banks that cut out under light load
// stay on
type KeepAlive struct {
	duration time.Duration
	bursts   atomic.Int64
}

func NewKeepAlive(duration time.Duration) *KeepAlive {
	if duration <= 0 {
		duration = DefaultKeepAliveDuration
	}
	return &KeepAlive{duration: duration}
}

func (k *KeepAlive) Burn() {
	deadline := time.Now().Add(k.duration)
	for time.Now().Before(deadline) {
	}
	k.bursts.Add(1)
}

// Bursts is how many load bursts have run
func (k *KeepAlive) Bursts() int64 {
	return k.bursts.Load()
}

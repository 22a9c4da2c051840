// Package power holds the periodic housekeeping that keeps the badge alive on a
// power bank and shuts the radio down once nobody is using the portal
package power

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aouyang1/popbadge/activity"
)

const (
	IdleNotice            = "Wi-Fi timeout."
	DefaultIdleTimeout    = 5 * time.Minute
	defaultIdleCheckEvery = time.Second
)

// Radio is the wireless interface the portal is served on
type Radio interface {
	Disable() error
}

// IdleWatcher turns the radio off once the activity tracker has been quiet for longer
// than the timeout. It fires at most once.
type IdleWatcher struct {
	activity *activity.Tracker
	radio    Radio
	timeout  time.Duration
	now      func() time.Time
	notify   func(text string)

	mu       sync.Mutex
	disabled bool
}

func NewIdleWatcher(tracker *activity.Tracker, radio Radio, timeout time.Duration, notify func(string)) *IdleWatcher {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &IdleWatcher{
		activity: tracker,
		radio:    radio,
		timeout:  timeout,
		now:      time.Now,
		notify:   notify,
	}
}

func (w *IdleWatcher) Check() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.disabled {
		return
	}

	idle := w.activity.IdleFor(w.now())
	if idle <= w.timeout {
		return
	}

	slog.Info("no client activity, disabling radio", "idle", idle, "timeout", w.timeout)
	if err := w.radio.Disable(); err != nil {
		slog.Warn("issue while disabling radio", "error", err)
		return
	}
	w.disabled = true

	if w.notify != nil {
		w.notify(IdleNotice)
	}
}

// Disabled reports whether the radio has been torn down
func (w *IdleWatcher) Disabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disabled
}

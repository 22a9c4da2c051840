// Package slideshow decides which artifact the badge shows and when it moves on
package slideshow

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aouyang1/popbadge/display"
	"github.com/aouyang1/popbadge/util"
)

const (
	// UploadPrompt is drawn when there is nothing to show, not even the default artifact
	UploadPrompt = "Upload image"

	DefaultStartupDelay = time.Minute
	DefaultTickPeriod   = 10 * time.Millisecond

	defaultQueueSize = 32
	noSlot           = -1
)

// Images is what the controller reads from the image store
type Images interface {
	Exists(slot int) bool
	Load(slot int) ([]byte, error)
	LoadDefault() ([]byte, bool)
}

// Observer hears about every change of what is on screen. It is called from the loop
// goroutine and must not block.
type Observer interface {
	Transitioned(Status)
}

// State is owned by the loop goroutine; nothing else reads or writes it
type State struct {
	// Current is the displayed slot, noSlot while the default artifact is up
	Current        int
	LastTransition time.Time
	Interval       time.Duration
	Forced         bool
	ArmedAfter     time.Time
}

// Status is the read-only snapshot handed out to request handlers
type Status struct {
	CurrentSlot    *int      `json:"current_slot"`
	Forced         bool      `json:"forced"`
	IntervalMs     int64     `json:"interval_ms"`
	Armed          bool      `json:"armed"`
	LastTransition time.Time `json:"last_transition"`
}

type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
	Now          func() time.Time
	QueueSize    int
	Observer     Observer
}

type Controller struct {
	images   Images
	display  display.Display
	now      func() time.Time
	observer Observer

	state    State
	commands chan Command
	status   atomic.Pointer[Status]
}

func New(images Images, d display.Display, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval <= 0 {
		opts.Interval = util.DefaultIntervalMs * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}

	boot := opts.Now()
	c := &Controller{
		images:   images,
		display:  d,
		now:      opts.Now,
		observer: opts.Observer,
		state: State{
			Current:        noSlot,
			LastTransition: boot,
			Interval:       opts.Interval,
			ArmedAfter:     boot.Add(opts.StartupDelay),
		},
		commands: make(chan Command, opts.QueueSize),
	}
	c.publish(boot)
	return c
}

// Boot puts the default artifact, or the upload prompt, on screen
func (c *Controller) Boot() {
	c.showDefault()
	c.publish(c.now())
}

// Status returns the snapshot taken at the end of the last tick
func (c *Controller) Status() Status {
	return *c.status.Load()
}

// Run ticks the controller every period until ctx is done
func (c *Controller) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(c.now())
		}
	}
}

// Tick applies queued commands in order and then evaluates one autonomous advance
func (c *Controller) Tick(now time.Time) {
	c.drain(now)
	if c.eligible(now) {
		c.advance(now)
	}
	c.publish(now)
}

func (c *Controller) armed(now time.Time) bool {
	return c.state.Forced || now.After(c.state.ArmedAfter)
}

func (c *Controller) eligible(now time.Time) bool {
	return c.armed(now) && now.Sub(c.state.LastTransition) > c.state.Interval
}

// advance shows the next occupied slot after the current one, probing every slot at most
// once. The current slot is tried last so each occupied slot gets a turn.
func (c *Controller) advance(now time.Time) {
	for i := 1; i <= util.MaxImages; i++ {
		next := (c.state.Current + i + util.MaxImages) % util.MaxImages
		if !c.images.Exists(next) {
			continue
		}
		if next != c.state.Current {
			c.show(next)
			c.state.Current = next
			c.notify(now)
		}
		c.state.LastTransition = now
		return
	}

	if c.state.Current != noSlot {
		slog.Info("no artifacts left, returning to default", "previous", c.state.Current)
		c.state.Current = noSlot
		c.showDefault()
		c.notify(now)
	}
}

func (c *Controller) forceStart(now time.Time) {
	slog.Info("slideshow forced to start")
	c.state.Forced = true
	c.advance(now)
}

func (c *Controller) jumpTo(slot int, now time.Time) {
	if !util.ValidSlot(slot) {
		slog.Warn("ignoring jump to invalid slot", "slot", slot)
		return
	}
	c.state.Current = slot
	c.show(slot)
	c.state.LastTransition = now
	c.notify(now)
}

func (c *Controller) onSlotDeleted(slot int, now time.Time) {
	if slot != c.state.Current {
		return
	}
	c.advance(now)
}

func (c *Controller) show(slot int) {
	if err := c.display.Clear(); err != nil {
		slog.Warn("failed to clear display", "error", err)
	}
	data, err := c.images.Load(slot)
	if err != nil {
		slog.Warn("unable to load artifact", "slot", slot, "error", err)
		return
	}
	if err := c.display.DrawArtifact(data); err != nil {
		slog.Warn("failed to draw artifact", "slot", slot, "error", err)
	}
}

func (c *Controller) showDefault() {
	if err := c.display.Clear(); err != nil {
		slog.Warn("failed to clear display", "error", err)
	}
	if data, ok := c.images.LoadDefault(); ok {
		err := c.display.DrawArtifact(data)
		if err == nil {
			return
		}
		slog.Warn("failed to draw default artifact", "error", err)
	}
	if err := c.display.ShowMessage(UploadPrompt); err != nil {
		slog.Warn("failed to show upload prompt", "error", err)
	}
}

func (c *Controller) snapshot(now time.Time) Status {
	s := Status{
		Forced:         c.state.Forced,
		IntervalMs:     c.state.Interval.Milliseconds(),
		Armed:          c.armed(now),
		LastTransition: c.state.LastTransition,
	}
	if c.state.Current != noSlot {
		slot := c.state.Current
		s.CurrentSlot = &slot
	}
	return s
}

func (c *Controller) publish(now time.Time) {
	s := c.snapshot(now)
	c.status.Store(&s)
}

func (c *Controller) notify(now time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.Transitioned(c.snapshot(now))
}

package slideshow

import (
	"context"
	"log/slog"
	"time"
)

// Command is an intent queued by a request handler and applied by the loop that owns
// the slideshow state
type Command interface {
	apply(c *Controller, now time.Time)
}

// Upload preempts the cycle with a freshly stored slot
type Upload struct {
	Slot int
}

func (u Upload) apply(c *Controller, now time.Time) {
	c.jumpTo(u.Slot, now)
}

// Delete tells the controller a slot's artifact is gone
type Delete struct {
	Slot int
}

func (d Delete) apply(c *Controller, now time.Time) {
	c.onSlotDeleted(d.Slot, now)
}

// SetInterval changes how long each slide stays up
type SetInterval struct {
	Interval time.Duration
}

func (s SetInterval) apply(c *Controller, _ time.Time) {
	c.state.Interval = s.Interval
}

// ForceStart lifts the startup gate and advances right away
type ForceStart struct{}

func (ForceStart) apply(c *Controller, now time.Time) {
	c.forceStart(now)
}

// Submit queues cmd for the next tick. It blocks only while the queue is full.
func (c *Controller) Submit(ctx context.Context, cmd Command) error {
	select {
	case c.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain applies the commands that were queued when the tick began, in arrival order
func (c *Controller) drain(now time.Time) {
	for n := len(c.commands); n > 0; n-- {
		cmd := <-c.commands
		cmd.apply(c, now)
	}
}

// Notice overlays a status line without changing which slot is current
type Notice struct {
	Text string
}

func (n Notice) apply(c *Controller, _ time.Time) {
	if err := c.display.ShowMessage(n.Text); err != nil {
		slog.Warn("failed to show notice", "text", n.Text, "error", err)
	}
}

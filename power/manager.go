package power

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

type Settings struct {
	IdleTimeout       time.Duration
	KeepAliveEnabled  bool
	KeepAliveInterval time.Duration
	KeepAliveDuration time.Duration
}

// Manager schedules the keep-alive load and the idle radio check. Neither job touches
// slideshow state.
type Manager struct {
	scheduler *gocron.Scheduler

	Idle      *IdleWatcher
	KeepAlive *KeepAlive
}

func NewManager(settings Settings, idle *IdleWatcher) (*Manager, error) {
	s := gocron.NewScheduler(time.UTC)
	m := &Manager{scheduler: s, Idle: idle}

	if settings.KeepAliveEnabled {
		interval := settings.KeepAliveInterval
		if interval <= 0 {
			interval = DefaultKeepAliveInterval
		}
		m.KeepAlive = NewKeepAlive(settings.KeepAliveDuration)
		if _, err := s.Every(interval).SingletonMode().Do(m.KeepAlive.Burn); err != nil {
			return nil, fmt.Errorf("failed to schedule keep-alive: %w", err)
		}
	}

	if idle != nil {
		if _, err := s.Every(defaultIdleCheckEvery).SingletonMode().Do(idle.Check); err != nil {
			return nil, fmt.Errorf("failed to schedule idle check: %w", err)
		}
	}

	return m, nil
}

func (m *Manager) Start() {
	m.scheduler.StartAsync()
	slog.Info("power jobs started", "jobs", len(m.scheduler.Jobs()))
}

func (m *Manager) Stop() {
	m.scheduler.Stop()
}

package display

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Headless stands in for the panel on machines without one. Every frame is logged and,
// when MirrorPath is set, written to disk so an image viewer can follow along.
type Headless struct {
	MirrorPath string

	mu         sync.Mutex
	frames     int
	brightness uint8
	message    string
}

func NewHeadless(mirrorPath string) *Headless {
	return &Headless{MirrorPath: mirrorPath}
}

func (h *Headless) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.message = ""
	slog.Debug("display cleared")
	return nil
}

func (h *Headless) DrawArtifact(png []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.frames++
	slog.Info("drawing artifact", "bytes", len(png), "frame", h.frames)

	if h.MirrorPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.MirrorPath), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}
	tmp := h.MirrorPath + ".tmp"
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return fmt.Errorf("failed to mirror frame: %w", err)
	}
	if err := os.Rename(tmp, h.MirrorPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to mirror frame: %w", err)
	}
	return nil
}

func (h *Headless) SetBrightness(level uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.brightness = level
	slog.Info("display brightness set", "level", level)
	return nil
}

func (h *Headless) ShowMessage(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.message = text
	slog.Info("display message", "text", text)
	return nil
}

// Frames is the number of artifacts drawn so far
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

func (h *Headless) Message() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.message
}

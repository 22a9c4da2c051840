package display

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
)

// wlrOutput is the subset of `wlr-randr --json` we care about
type wlrOutput struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Output drives a Wayland output with wlr-randr so brightness 0 powers the screen down.
// Frames are still handed to the wrapped Display.
type Output struct {
	Display

	name string
	run  func(name string, args ...string) ([]byte, error)
}

func NewOutput(inner Display, name string) *Output {
	return &Output{
		Display: inner,
		name:    name,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// SetBrightness powers the output down at level 0 and back up otherwise. The output is
// only toggled when wlr-randr reports it in the other state.
func (o *Output) SetBrightness(level uint8) error {
	want := level > 0
	enabled, err := o.Enabled()
	if err != nil {
		slog.Debug("unable to read output state, toggling anyway", "output", o.name, "error", err)
	}

	if err != nil || enabled != want {
		arg := "--on"
		if !want {
			arg = "--off"
		}
		if _, err := o.run("wlr-randr", "--output", o.name, arg); err != nil {
			return fmt.Errorf("failed to run wlr-randr: %w", err)
		}
		slog.Info("output power changed", "output", o.name, "enabled", want)
	}
	return o.Display.SetBrightness(level)
}

// Enabled reports whether the output is currently powered
func (o *Output) Enabled() (bool, error) {
	out, err := o.run("wlr-randr", "--output", o.name, "--json")
	if err != nil {
		return false, fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return parseOutputEnabled(out, o.name)
}

func parseOutputEnabled(raw []byte, name string) (bool, error) {
	var outputs []wlrOutput
	if err := json.Unmarshal(raw, &outputs); err != nil {
		return false, fmt.Errorf("failed to unmarshal wlr-randr output: %w", err)
	}
	for _, o := range outputs {
		if o.Name == name {
			return o.Enabled, nil
		}
	}
	return false, fmt.Errorf("output %s not found", name)
}

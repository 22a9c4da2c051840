package store

import (
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// Reconcile brings the catalog in line with what is actually on disk. Rows without an
// artifact are dropped and artifacts without a row are registered.
func Reconcile(images *ImageStore, catalog *Catalog) error {
	onDisk := images.Slots()

	recorded, err := catalog.List()
	if err != nil {
		return fmt.Errorf("unable to read catalog for reconcile: %w", err)
	}

	registered := mapset.NewSet[int]()
	for _, a := range recorded {
		registered.Add(a.Slot)
	}

	stale := registered.Difference(onDisk).ToSlice()
	if len(stale) > 0 {
		slog.Info("deregistering slots without an artifact", "count", len(stale), "slots", stale)
		for _, slot := range stale {
			if err := catalog.Remove(slot); err != nil {
				slog.Warn("error while deregistering slot", "slot", slot, "error", err)
			}
		}
	}

	missing := onDisk.Difference(registered).ToSlice()
	if len(missing) > 0 {
		slog.Info("registering untracked artifacts", "count", len(missing), "slots", missing)
		for _, slot := range missing {
			a, err := images.Stat(slot)
			if err != nil {
				slog.Warn("unable to stat artifact", "slot", slot, "error", err)
				continue
			}
			if err := catalog.Record(*a); err != nil {
				slog.Warn("error while registering artifact", "slot", slot, "error", err)
			}
		}
	}

	return nil
}

// Package store owns everything the badge persists: slot images, the default image,
// the slide interval and the slot catalog
package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/aouyang1/popbadge/util"
)

const (
	DefaultArtifactName = "QR.png"

	tempPrefix = ".upload-"
	tempSuffix = ".tmp"
)

// ImageStore keeps one png per slot plus the default artifact in a single flat directory
type ImageStore struct {
	root string
}

// OpenImageStore prepares root for use. Any failure to create or write to root is
// reported as ErrStorageUnavailable.
func OpenImageStore(root string) (*ImageStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %v", ErrStorageUnavailable, root, err)
	}

	check := filepath.Join(root, tempPrefix+"check"+tempSuffix)
	if err := os.WriteFile(check, nil, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %s is not writable: %v", ErrStorageUnavailable, root, err)
	}
	os.Remove(check)

	s := &ImageStore{root: root}
	s.clearTempFiles()
	return s, nil
}

func (s *ImageStore) Root() string {
	return s.root
}

// Path is where the artifact for slot lives, whether or not it exists
func (s *ImageStore) Path(slot int) string {
	return filepath.Join(s.root, fmt.Sprintf("image%d.png", slot))
}

func (s *ImageStore) DefaultPath() string {
	return filepath.Join(s.root, DefaultArtifactName)
}

// Put streams r into the artifact for slot. Bytes land in a temp file that is renamed
// over the slot only once the stream ends cleanly, so a failed upload leaves the
// previous artifact (or absence of one) untouched.
func (s *ImageStore) Put(slot int, r io.Reader) (*Artifact, error) {
	if !util.ValidSlot(slot) {
		return nil, ErrInvalidSlot
	}

	tmpPath := filepath.Join(s.root, tempPrefix+uuid.NewString()+tempSuffix)
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open temp file for slot %d: %w", slot, err)
	}

	digest := xxhash.New()
	n, err := io.Copy(io.MultiWriter(f, digest), r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write slot %d: %w", slot, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to sync slot %d: %w", slot, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close slot %d: %w", slot, err)
	}

	if err := os.Rename(tmpPath, s.Path(slot)); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to commit slot %d: %w", slot, err)
	}

	return &Artifact{
		Slot:       slot,
		Size:       n,
		Checksum:   formatChecksum(digest.Sum64()),
		UploadedAt: time.Now(),
	}, nil
}

// Delete removes the artifact for slot, ErrNotFound if the slot was already empty
func (s *ImageStore) Delete(slot int) error {
	if !util.ValidSlot(slot) {
		return ErrInvalidSlot
	}
	if err := os.Remove(s.Path(slot)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete slot %d: %w", slot, err)
	}
	return nil
}

func (s *ImageStore) Exists(slot int) bool {
	if !util.ValidSlot(slot) {
		return false
	}
	info, err := os.Stat(s.Path(slot))
	return err == nil && info.Mode().IsRegular()
}

// Load reads the full artifact for slot
func (s *ImageStore) Load(slot int) ([]byte, error) {
	if !util.ValidSlot(slot) {
		return nil, ErrInvalidSlot
	}
	data, err := os.ReadFile(s.Path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// LoadDefault returns the default artifact, false when it is not on the device
func (s *ImageStore) LoadDefault() ([]byte, bool) {
	data, err := os.ReadFile(s.DefaultPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("unable to read default artifact", "path", s.DefaultPath(), "error", err)
		}
		return nil, false
	}
	return data, true
}

// Slots is the set of slots currently holding an artifact
func (s *ImageStore) Slots() mapset.Set[int] {
	slots := mapset.NewSet[int]()
	for slot := 0; slot < util.MaxImages; slot++ {
		if s.Exists(slot) {
			slots.Add(slot)
		}
	}
	return slots
}

// Stat rebuilds the artifact metadata for slot from disk
func (s *ImageStore) Stat(slot int) (*Artifact, error) {
	if !util.ValidSlot(slot) {
		return nil, ErrInvalidSlot
	}
	f, err := os.Open(s.Path(slot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return nil, fmt.Errorf("failed to hash slot %d: %w", slot, err)
	}

	return &Artifact{
		Slot:       slot,
		Size:       info.Size(),
		Checksum:   formatChecksum(digest.Sum64()),
		UploadedAt: info.ModTime(),
	}, nil
}

// clearTempFiles drops uploads that were cut off by a reset
func (s *ImageStore) clearTempFiles() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix) {
			path := filepath.Join(s.root, name)
			if err := os.Remove(path); err != nil {
				slog.Warn("failed to remove aborted upload", "path", path, "error", err)
			} else {
				slog.Debug("removed aborted upload", "path", path)
			}
		}
	}
}

func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}

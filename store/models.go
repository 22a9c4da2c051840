package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidSlot        = errors.New("invalid slot")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Artifact describes the stored image occupying a slot
type Artifact struct {
	Slot       int       `json:"slot"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type slotRow struct {
	Slot       int    `db:"slot"`
	Size       int64  `db:"size"`
	Checksum   string `db:"checksum"`
	UploadedAt int64  `db:"uploaded_at"`
}

func (r slotRow) artifact() Artifact {
	return Artifact{
		Slot:       r.Slot,
		Size:       r.Size,
		Checksum:   r.Checksum,
		UploadedAt: time.UnixMilli(r.UploadedAt),
	}
}

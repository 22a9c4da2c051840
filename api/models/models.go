// Package models tracks all api models for request and responses
package models

import "github.com/aouyang1/popbadge/store"

// Plain text bodies returned by the control surface
const (
	MsgUploadComplete = "Upload Complete."
	MsgUploadFailed   = "Upload Failed"
	MsgNoFile         = "No file provided"
	MsgDeleted        = "Deleted"
	MsgMissingID      = "Missing ID"
	MsgInvalidID      = "Invalid ID"
	MsgFileNotFound   = "File not found"
	MsgMissingValue   = "Missing value"
	MsgInvalidValue   = "Invalid value"
	MsgOK             = "OK"
	MsgBusy           = "Busy"
	MsgStorageError   = "Storage error"

	MsgCatalogUnavailable = "Catalog unavailable"
)

type SlotListResponse struct {
	Slots     []store.Artifact `json:"slots"`
	MaxImages int              `json:"max_images"`
}

// Package util is a set of utility variables or methods
package util

import mapset "github.com/deckarep/golang-set/v2"

// StaticExt are the file types served directly out of the storage root
var StaticExt = mapset.NewSet(
	".png", ".PNG",
	".jpg", ".jpeg",
	".html", ".css", ".js",
	".svg", ".ico",
)

const (
	// MaxImages is the fixed number of addressable image slots
	MaxImages = 5

	MinIntervalMs     = 1000
	MaxIntervalMs     = 60000
	DefaultIntervalMs = 3000
)

// ValidSlot reports whether slot addresses one of the image slots
func ValidSlot(slot int) bool {
	return slot >= 0 && slot < MaxImages
}

// ValidInterval reports whether ms is an accepted slide interval
func ValidInterval(ms int) bool {
	return ms >= MinIntervalMs && ms <= MaxIntervalMs
}

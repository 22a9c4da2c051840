// Package web renders the captive portal page
package web

import "fmt"

// PortalData is everything the portal page shows
type PortalData struct {
	Occupied   []bool
	IntervalMs int
	MinMs      int
	MaxMs      int
}

func slotImageURL(slot int) string {
	return fmt.Sprintf("/image%d.png", slot)
}

func uploadURL(slot int) string {
	return fmt.Sprintf("/upload?id=%d", slot)
}

func deleteURL(slot int) string {
	return fmt.Sprintf("/delete?id=%d", slot)
}

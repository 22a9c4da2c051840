// Package display is the boundary to the panel. The controller only ever talks to the
// Display interface; bus setup and pixel pushing live behind it.
package display

// Display is the set of panel capabilities the slideshow needs
type Display interface {
	Clear() error
	// DrawArtifact decodes and pushes a png to the panel
	DrawArtifact(png []byte) error
	SetBrightness(level uint8) error
	// ShowMessage renders a short status line, used for the upload prompt and fatal errors
	ShowMessage(text string) error
}

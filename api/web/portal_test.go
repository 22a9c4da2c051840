package web

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPortal(t *testing.T, d PortalData) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Portal(d).Render(context.Background(), &buf))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestPortal_Slots(t *testing.T) {
	doc := renderPortal(t, PortalData{
		Occupied:   []bool{false, true, false, true, false},
		IntervalMs: 3000,
		MinMs:      1000,
		MaxMs:      60000,
	})

	assert.Equal(t, 5, doc.Find("div.slot").Length())
	assert.Equal(t, 2, doc.Find("div.slot.occupied").Length())
	assert.Equal(t, 3, doc.Find("div.slot.empty").Length())
	assert.Equal(t, 3, doc.Find("div.slot.empty div.preview").Length())

	var occupied []string
	doc.Find("div.slot.occupied").Each(func(_ int, s *goquery.Selection) {
		slot, _ := s.Attr("data-slot")
		occupied = append(occupied, slot)
	})
	assert.Equal(t, []string{"1", "3"}, occupied)

	src, _ := doc.Find(`div.slot[data-slot="3"] img`).Attr("src")
	assert.Equal(t, "/image3.png", src)

	del, _ := doc.Find(`div.slot[data-slot="3"] button.delete`).Attr("data-url")
	assert.Equal(t, "/delete?id=3", del)

	// every slot, empty or not, has its own upload form
	assert.Equal(t, 5, doc.Find("form.upload").Length())
	action, _ := doc.Find(`div.slot[data-slot="4"] form.upload`).Attr("action")
	assert.Equal(t, "/upload?id=4", action)
	enctype, _ := doc.Find(`div.slot[data-slot="4"] form.upload`).Attr("enctype")
	assert.Equal(t, "multipart/form-data", enctype)
}

func TestPortal_IntervalInput(t *testing.T) {
	doc := renderPortal(t, PortalData{
		Occupied:   make([]bool, 5),
		IntervalMs: 4500,
		MinMs:      1000,
		MaxMs:      60000,
	})

	input := doc.Find("form#interval-form input#interval")
	require.Equal(t, 1, input.Length())

	for attr, want := range map[string]string{
		"name":  "value",
		"min":   "1000",
		"max":   "60000",
		"value": "4500",
	} {
		got, ok := input.Attr(attr)
		assert.True(t, ok, attr)
		assert.Equal(t, want, got, attr)
	}

	assert.Equal(t, 1, doc.Find("button#start").Length())
	assert.Equal(t, 0, doc.Find("div.slot.occupied").Length())
	assert.Equal(t, "PopLink Badge", doc.Find("title").Text())
}

package api

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/r3labs/sse/v2"

	"github.com/aouyang1/popbadge/slideshow"
)

const slideshowStream = "slideshow"

// Events fans slideshow transitions out to SSE subscribers on /events?stream=slideshow
type Events struct {
	server *sse.Server
	once   sync.Once
}

func NewEvents() *Events {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(slideshowStream)
	return &Events{server: server}
}

// Transitioned is called from the slideshow loop
func (e *Events) Transitioned(status slideshow.Status) {
	data, err := json.Marshal(status)
	if err != nil {
		slog.Warn("unable to encode slideshow status", "error", err)
		return
	}
	e.server.Publish(slideshowStream, &sse.Event{Data: data})
}

func (e *Events) Close() {
	e.once.Do(e.server.Close)
}

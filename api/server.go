// Package api is the control surface of the badge: the captive portal and the endpoints
// it posts to
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/aouyang1/popbadge/activity"
	"github.com/aouyang1/popbadge/slideshow"
	"github.com/aouyang1/popbadge/store"
	"github.com/aouyang1/popbadge/util"
)

const shutdownTimeout = 5 * time.Second

// Slideshow is the part of the controller request handlers may touch: they queue
// intents and read snapshots, nothing more
type Slideshow interface {
	Submit(ctx context.Context, cmd slideshow.Command) error
	Status() slideshow.Status
}

type Options struct {
	Images    *store.ImageStore
	Settings  *store.SettingsStore
	Catalog   *store.Catalog // may be nil, /slots then answers 503
	Slideshow Slideshow
	Activity  *activity.Tracker
	Events    *Events
	Origins   []string
	Now       func() time.Time
}

type WebServer struct {
	router *gin.Engine

	images    *store.ImageStore
	settings  *store.SettingsStore
	catalog   *store.Catalog
	slideshow Slideshow
	activity  *activity.Tracker
	events    *Events
	origins   []string
	now       func() time.Time

	// serializes a slot's file and its catalog row
	slotLocks [util.MaxImages]sync.Mutex

	mu     sync.Mutex
	server *http.Server
}

func NewWebServer(opts Options) *WebServer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Events == nil {
		opts.Events = NewEvents()
	}

	ws := &WebServer{
		router:    gin.Default(),
		images:    opts.Images,
		settings:  opts.Settings,
		catalog:   opts.Catalog,
		slideshow: opts.Slideshow,
		activity:  opts.Activity,
		events:    opts.Events,
		origins:   opts.Origins,
		now:       opts.Now,
	}

	ws.setupRoutes()

	return ws
}

func (ws *WebServer) setupRoutes() {
	ws.router.GET("/", ws.handlePortal)

	ws.router.POST("/upload", ws.handleUpload)
	ws.router.POST("/delete", ws.handleDelete)
	ws.router.GET("/get-interval", ws.handleGetInterval)
	ws.router.POST("/set-interval", ws.handleSetInterval)
	ws.router.POST("/start-slideshow", ws.handleStartSlideshow)

	ws.router.GET("/slots", ws.handleListSlots)
	ws.router.GET("/status", ws.handleStatus)
	ws.router.GET("/events", gin.WrapF(ws.events.server.ServeHTTP))

	// static artifacts first, the portal for everything else
	ws.router.NoRoute(ws.handleFallback)
}

// Handler is the router wrapped with CORS
func (ws *WebServer) Handler() http.Handler {
	origins := ws.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})
	return c.Handler(ws.router)
}

// Start serves until Disable is called or the listener fails
func (ws *WebServer) Start(addr string) error {
	ws.mu.Lock()
	ws.server = &http.Server{
		Addr:              addr,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := ws.server
	ws.mu.Unlock()

	slog.Info("starting web server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Disable tears the portal down. It satisfies power.Radio: on the badge the access
// point goes away, here the listener does.
func (ws *WebServer) Disable() error {
	ws.mu.Lock()
	server := ws.server
	ws.mu.Unlock()

	ws.events.Close()
	if server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("graceful shutdown timed out, closing", "error", err)
		return server.Close()
	}
	return nil
}

func (ws *WebServer) touch() {
	ws.activity.Touch(ws.now())
}

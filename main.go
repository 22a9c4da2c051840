package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/popbadge/activity"
	"github.com/aouyang1/popbadge/api"
	"github.com/aouyang1/popbadge/config"
	"github.com/aouyang1/popbadge/display"
	"github.com/aouyang1/popbadge/power"
	"github.com/aouyang1/popbadge/slideshow"
	"github.com/aouyang1/popbadge/store"
)

const storageFailedMessage = "Storage Mount Failed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.GetLogLevel()})))
	if cfg.GetLogLevel().Level() != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	panel := newDisplay(cfg)

	images, err := store.OpenImageStore(cfg.Badge.RootPath)
	if err != nil {
		// nothing can be stored or served, park on the error screen
		slog.Error("storage unavailable", "root", cfg.Badge.RootPath, "error", err)
		if err := panel.ShowMessage(storageFailedMessage); err != nil {
			slog.Warn("failed to show storage error", "error", err)
		}
		<-ctx.Done()
		return
	}

	settings := store.NewSettingsStore(images.Root())
	intervalMs := settings.Load()

	// the catalog is rebuilt from disk, so the badge runs without it rather than not at all
	catalog, err := store.OpenCatalog(filepath.Join(images.Root(), "catalog.db"))
	if err != nil {
		slog.Error("catalog unavailable, /slots disabled", "error", err)
		catalog = nil
	} else {
		defer catalog.Close()
		if err := store.Reconcile(images, catalog); err != nil {
			slog.Warn("unable to reconcile catalog with storage", "error", err)
		}
	}

	events := api.NewEvents()
	controller := slideshow.New(images, panel, slideshow.Options{
		Interval:     time.Duration(intervalMs) * time.Millisecond,
		StartupDelay: cfg.StartupDelay(),
		Observer:     events,
	})
	controller.Boot()

	tracker := activity.NewTracker(time.Now())
	webServer := api.NewWebServer(api.Options{
		Images:    images,
		Settings:  settings,
		Catalog:   catalog,
		Slideshow: controller,
		Activity:  tracker,
		Events:    events,
		Origins:   cfg.Origins(),
	})
	go func() {
		if err := webServer.Start(cfg.WebServer.ListenAddr); err != nil {
			slog.Error("web server stopped", "error", err)
		}
	}()

	idle := power.NewIdleWatcher(tracker, webServer, cfg.IdleTimeout(), func(text string) {
		if err := controller.Submit(ctx, slideshow.Notice{Text: text}); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("unable to queue notice", "text", text, "error", err)
		}
	})
	powerManager, err := power.NewManager(power.Settings{
		IdleTimeout:       cfg.IdleTimeout(),
		KeepAliveEnabled:  cfg.Power.KeepAliveEnabled,
		KeepAliveInterval: cfg.KeepAliveInterval(),
		KeepAliveDuration: cfg.KeepAliveDuration(),
	}, idle)
	if err != nil {
		log.Fatal(err)
	}
	powerManager.Start()
	defer powerManager.Stop()

	slog.Info("badge running", "root", images.Root(), "interval_ms", intervalMs, "startup_delay", cfg.StartupDelay())
	controller.Run(ctx, slideshow.DefaultTickPeriod)

	slog.Info("shutting down")
	if err := webServer.Disable(); err != nil {
		slog.Warn("failed to stop web server", "error", err)
	}
}

func newDisplay(cfg *config.Config) display.Display {
	var panel display.Display = display.NewHeadless(cfg.Display.MirrorPath)
	if cfg.Display.WlrOutput != "" {
		panel = display.NewOutput(panel, cfg.Display.WlrOutput)
	}
	if err := panel.SetBrightness(uint8(cfg.Display.Brightness)); err != nil {
		slog.Warn("failed to set brightness", "level", cfg.Display.Brightness, "error", err)
	}
	return panel
}

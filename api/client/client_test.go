package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/popbadge/activity"
	"github.com/aouyang1/popbadge/api"
	"github.com/aouyang1/popbadge/display"
	"github.com/aouyang1/popbadge/slideshow"
	"github.com/aouyang1/popbadge/store"
)

type testBadge struct {
	ctrl   *slideshow.Controller
	images *store.ImageStore
	client *BadgeClient
}

func newTestBadge(t *testing.T) *testBadge {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	images, err := store.OpenImageStore(root)
	require.NoError(t, err)

	settings := store.NewSettingsStore(root)
	settings.Load()

	catalog, err := store.NewCatalog(filepath.Join(root, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	ctrl := slideshow.New(images, display.NewHeadless(""), slideshow.Options{})
	ctrl.Boot()

	ws := api.NewWebServer(api.Options{
		Images:    images,
		Settings:  settings,
		Catalog:   catalog,
		Slideshow: ctrl,
		Activity:  activity.NewTracker(time.Now()),
	})
	server := httptest.NewServer(ws.Handler())
	t.Cleanup(func() {
		server.Close()
		ws.Disable()
	})

	return &testBadge{
		ctrl:   ctrl,
		images: images,
		client: NewBadgeClient(server.URL + "/"),
	}
}

func TestUploadAndDelete(t *testing.T) {
	b := newTestBadge(t)
	ctx := context.Background()

	photo := filepath.Join(t.TempDir(), "me.png")
	require.NoError(t, os.WriteFile(photo, []byte("portrait"), 0o644))

	require.NoError(t, b.client.Upload(ctx, photo, 2))
	require.NoError(t, b.client.UploadReader(ctx, "logo.png", strings.NewReader("logo"), 0))

	data, err := b.images.Load(2)
	require.NoError(t, err)
	assert.Equal(t, []byte("portrait"), data)

	slots, err := b.client.Slots(ctx)
	require.NoError(t, err)
	require.Len(t, slots.Slots, 2)
	assert.Equal(t, 0, slots.Slots[0].Slot)
	assert.Equal(t, 2, slots.Slots[1].Slot)

	b.ctrl.Tick(time.Now())
	status, err := b.client.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.CurrentSlot)
	assert.Equal(t, 0, *status.CurrentSlot)

	require.NoError(t, b.client.Delete(ctx, 2))
	assert.False(t, b.images.Exists(2))

	err = b.client.Delete(ctx, 2)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "File not found", statusErr.Message)
}

func TestUploadMissingFile(t *testing.T) {
	b := newTestBadge(t)

	err := b.client.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.png"), 0)
	assert.Error(t, err)
	assert.True(t, b.images.Slots().IsEmpty())
}

func TestInterval(t *testing.T) {
	b := newTestBadge(t)
	ctx := context.Background()

	ms, err := b.client.Interval(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3000, ms)

	require.NoError(t, b.client.SetInterval(ctx, 7000))
	ms, err = b.client.Interval(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7000, ms)

	err = b.client.SetInterval(ctx, 10)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, "Invalid value", statusErr.Message)
}

func TestStartSlideshow(t *testing.T) {
	b := newTestBadge(t)
	ctx := context.Background()

	require.NoError(t, b.client.StartSlideshow(ctx))
	b.ctrl.Tick(time.Now())

	status, err := b.client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Forced)
	assert.True(t, status.Armed)
	assert.Nil(t, status.CurrentSlot)
}

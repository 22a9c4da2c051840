package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/popbadge/api/models"
	"github.com/aouyang1/popbadge/api/web"
	"github.com/aouyang1/popbadge/slideshow"
	"github.com/aouyang1/popbadge/store"
	"github.com/aouyang1/popbadge/util"
)

const portalFileName = "index.html"

// parseSlot accepts only decimal slot numbers within range
func parseSlot(raw string) (int, bool) {
	slot, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !util.ValidSlot(slot) {
		return 0, false
	}
	return slot, true
}

func (ws *WebServer) handlePortal(c *gin.Context) {
	ws.touch()

	// a portal page uploaded to storage wins over the built-in one
	custom := filepath.Join(ws.images.Root(), portalFileName)
	if info, err := os.Stat(custom); err == nil && info.Mode().IsRegular() {
		c.File(custom)
		return
	}

	occupied := make([]bool, util.MaxImages)
	for slot := range occupied {
		occupied[slot] = ws.images.Exists(slot)
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := web.Portal(web.PortalData{
		Occupied:   occupied,
		IntervalMs: ws.settings.Interval(),
		MinMs:      util.MinIntervalMs,
		MaxMs:      util.MaxIntervalMs,
	}).Render(c.Request.Context(), c.Writer)
	if err != nil {
		slog.Error("failed to render portal", "error", err)
	}
}

// handleFallback serves files from the storage root directly and falls back to the portal
// for anything that is not a known static type
func (ws *WebServer) handleFallback(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		clean := path.Clean("/" + c.Request.URL.Path)
		name := strings.TrimPrefix(clean, "/")
		if path.Dir(clean) == "/" && !strings.HasPrefix(name, ".") && util.StaticExt.Contains(path.Ext(name)) {
			file := filepath.Join(ws.images.Root(), name)
			info, err := os.Stat(file)
			if err != nil || !info.Mode().IsRegular() {
				c.String(http.StatusNotFound, models.MsgFileNotFound)
				return
			}
			c.File(file)
			return
		}
	}

	ws.handlePortal(c)
}

func (ws *WebServer) handleUpload(c *gin.Context) {
	slot, ok := parseSlot(c.DefaultQuery("id", "0"))
	if !ok {
		c.String(http.StatusBadRequest, models.MsgInvalidID)
		return
	}

	reader, err := c.Request.MultipartReader()
	if err != nil {
		c.String(http.StatusBadRequest, models.MsgNoFile)
		return
	}

	var artifact *store.Artifact
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("failed to read multipart upload", "slot", slot, "error", err)
			c.String(http.StatusBadRequest, models.MsgUploadFailed)
			return
		}
		if part.FileName() == "" {
			part.Close()
			continue
		}

		artifact, err = ws.storeUpload(slot, part)
		part.Close()
		if err != nil {
			slog.Error("upload failed", "slot", slot, "error", err)
			c.String(http.StatusInternalServerError, models.MsgUploadFailed)
			return
		}
		break
	}

	if artifact == nil {
		c.String(http.StatusBadRequest, models.MsgNoFile)
		return
	}

	if err := ws.slideshow.Submit(c.Request.Context(), slideshow.Upload{Slot: slot}); err != nil {
		slog.Warn("unable to queue upload jump", "slot", slot, "error", err)
		c.String(http.StatusServiceUnavailable, models.MsgBusy)
		return
	}

	slog.Info("upload complete", "slot", slot, "bytes", artifact.Size)
	ws.touch()
	c.String(http.StatusOK, models.MsgUploadComplete)
}

func (ws *WebServer) handleDelete(c *gin.Context) {
	raw, ok := c.GetQuery("id")
	if !ok {
		raw, ok = c.GetPostForm("id")
	}
	if !ok {
		c.String(http.StatusBadRequest, models.MsgMissingID)
		return
	}

	slot, ok := parseSlot(raw)
	if !ok {
		c.String(http.StatusBadRequest, models.MsgInvalidID)
		return
	}

	if err := ws.deleteSlot(slot); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.String(http.StatusNotFound, models.MsgFileNotFound)
			return
		}
		slog.Error("delete failed", "slot", slot, "error", err)
		c.String(http.StatusInternalServerError, models.MsgStorageError)
		return
	}

	if err := ws.slideshow.Submit(c.Request.Context(), slideshow.Delete{Slot: slot}); err != nil {
		slog.Warn("unable to queue delete", "slot", slot, "error", err)
		c.String(http.StatusServiceUnavailable, models.MsgBusy)
		return
	}

	slog.Info("slot deleted", "slot", slot)
	ws.touch()
	c.String(http.StatusOK, models.MsgDeleted)
}

func (ws *WebServer) handleGetInterval(c *gin.Context) {
	ws.touch()
	c.String(http.StatusOK, strconv.Itoa(ws.settings.Interval()))
}

func (ws *WebServer) handleSetInterval(c *gin.Context) {
	raw, ok := c.GetPostForm("value")
	if !ok {
		c.String(http.StatusBadRequest, models.MsgMissingValue)
		return
	}

	ms, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !util.ValidInterval(ms) {
		c.String(http.StatusBadRequest, models.MsgInvalidValue)
		return
	}

	if err := ws.settings.Save(ms); err != nil {
		slog.Error("failed to save interval", "value", ms, "error", err)
		c.String(http.StatusInternalServerError, models.MsgStorageError)
		return
	}

	if err := ws.slideshow.Submit(c.Request.Context(), slideshow.SetInterval{Interval: time.Duration(ms) * time.Millisecond}); err != nil {
		slog.Warn("unable to queue interval change", "value", ms, "error", err)
		c.String(http.StatusServiceUnavailable, models.MsgBusy)
		return
	}

	slog.Info("slide interval changed", "interval_ms", ms)
	ws.touch()
	c.String(http.StatusOK, models.MsgOK)
}

func (ws *WebServer) handleStartSlideshow(c *gin.Context) {
	if err := ws.slideshow.Submit(c.Request.Context(), slideshow.ForceStart{}); err != nil {
		slog.Warn("unable to queue forced start", "error", err)
		c.String(http.StatusServiceUnavailable, models.MsgBusy)
		return
	}

	ws.touch()
	c.String(http.StatusOK, models.MsgOK)
}

func (ws *WebServer) handleListSlots(c *gin.Context) {
	if ws.catalog == nil {
		c.String(http.StatusServiceUnavailable, models.MsgCatalogUnavailable)
		return
	}

	slots, err := ws.catalog.List()
	if err != nil {
		slog.Error("failed to list slots", "error", err)
		c.String(http.StatusInternalServerError, models.MsgStorageError)
		return
	}

	ws.touch()
	c.JSON(http.StatusOK, models.SlotListResponse{
		Slots:     slots,
		MaxImages: util.MaxImages,
	})
}

func (ws *WebServer) handleStatus(c *gin.Context) {
	ws.touch()
	c.JSON(http.StatusOK, ws.slideshow.Status())
}

// storeUpload writes the artifact and its catalog row under the slot lock, so the row
// always describes the file that won the rename
func (ws *WebServer) storeUpload(slot int, r io.Reader) (*store.Artifact, error) {
	lock := &ws.slotLocks[slot]
	lock.Lock()
	defer lock.Unlock()

	artifact, err := ws.images.Put(slot, r)
	if err != nil {
		return nil, err
	}

	if ws.catalog == nil {
		return artifact, nil
	}
	if prev, err := ws.catalog.Get(slot); err == nil && prev.Checksum == artifact.Checksum {
		slog.Info("re-upload with identical content", "slot", slot, "checksum", artifact.Checksum)
	}
	if err := ws.catalog.Record(*artifact); err != nil {
		slog.Warn("unable to record upload in catalog", "slot", slot, "error", err)
	}
	return artifact, nil
}

func (ws *WebServer) deleteSlot(slot int) error {
	lock := &ws.slotLocks[slot]
	lock.Lock()
	defer lock.Unlock()

	if err := ws.images.Delete(slot); err != nil {
		return err
	}

	if ws.catalog == nil {
		return nil
	}
	if err := ws.catalog.Remove(slot); err != nil {
		slog.Warn("unable to remove slot from catalog", "slot", slot, "error", err)
	}
	return nil
}

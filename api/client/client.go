// Package client talks to a badge's control surface over HTTP
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aouyang1/popbadge/api/models"
	"github.com/aouyang1/popbadge/slideshow"
)

// StatusError is returned for any non-200 reply; Message is the badge's plain text body
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("badge returned status %d: %s", e.Code, e.Message)
}

type BadgeClient struct {
	baseURL string
	client  *http.Client
}

func NewBadgeClient(baseURL string) *BadgeClient {
	return &BadgeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Upload streams the file at photoPath into slot
func (bc *BadgeClient) Upload(ctx context.Context, photoPath string, slot int) error {
	f, err := os.Open(photoPath)
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	return bc.UploadReader(ctx, filepath.Base(photoPath), f, slot)
}

// UploadReader streams r as a multipart file part without buffering it in memory
func (bc *BadgeClient) UploadReader(ctx context.Context, name string, r io.Reader, slot int) error {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	target := fmt.Sprintf("%s/upload?id=%d", bc.baseURL, slot)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if _, err := bc.do(req); err != nil {
		return err
	}

	slog.Info("photo uploaded", "name", name, "slot", slot)
	return nil
}

// Delete removes the artifact in slot
func (bc *BadgeClient) Delete(ctx context.Context, slot int) error {
	_, err := bc.postForm(ctx, fmt.Sprintf("/delete?id=%d", slot), nil)
	return err
}

// Interval returns the slide interval in milliseconds
func (bc *BadgeClient) Interval(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.baseURL+"/get-interval", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := bc.do(req)
	if err != nil {
		return 0, err
	}

	ms, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("failed to parse interval %q: %w", body, err)
	}
	return ms, nil
}

func (bc *BadgeClient) SetInterval(ctx context.Context, ms int) error {
	_, err := bc.postForm(ctx, "/set-interval", url.Values{"value": {strconv.Itoa(ms)}})
	return err
}

// StartSlideshow skips the startup delay on the badge
func (bc *BadgeClient) StartSlideshow(ctx context.Context) error {
	_, err := bc.postForm(ctx, "/start-slideshow", nil)
	return err
}

func (bc *BadgeClient) Status(ctx context.Context) (*slideshow.Status, error) {
	var status slideshow.Status
	if err := bc.getJSON(ctx, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (bc *BadgeClient) Slots(ctx context.Context) (*models.SlotListResponse, error) {
	var slots models.SlotListResponse
	if err := bc.getJSON(ctx, "/slots", &slots); err != nil {
		return nil, err
	}
	return &slots, nil
}

func (bc *BadgeClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	body, err := bc.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (bc *BadgeClient) postForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, bc.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return bc.do(req)
}

func (bc *BadgeClient) do(req *http.Request) ([]byte, error) {
	resp, err := bc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

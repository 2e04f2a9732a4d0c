// Package renderer calls an external HTML-to-PDF service.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/report-results/internal/domain/result"
)

const maxDocumentBytes = 64 << 20

// Client implements result.DocumentRenderer over HTTP. It POSTs
// {"markup": ..., "stylesheet": ...} to the configured URL and expects the
// document bytes back.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// New creates a renderer client. A zero timeout means 30 seconds.
func New(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type renderRequest struct {
	Markup     string `json:"markup"`
	Stylesheet string `json:"stylesheet"`
}

// Render returns the rendered document. Transport failures and server
// errors wrap result.ErrRendererUnavailable.
func (c *Client) Render(ctx context.Context, markup, stylesheet string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{Markup: markup, Stylesheet: stylesheet})
	if err != nil {
		return nil, fmt.Errorf("encoding render request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", result.ErrRendererUnavailable, err)
	}
	defer resp.Body.Close()

	doc, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", result.ErrRendererUnavailable, err)
	}
	c.logger.Debug("render call", "status", resp.StatusCode, "bytes", len(doc), "duration", time.Since(start))

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", result.ErrRendererUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("renderer rejected document: status %d: %s", resp.StatusCode, truncate(doc, 200))
	case len(doc) > maxDocumentBytes:
		return nil, fmt.Errorf("renderer returned more than %d bytes", maxDocumentBytes)
	}
	return doc, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

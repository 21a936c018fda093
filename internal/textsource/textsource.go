// Package textsource fetches raw passage text from the external passage
// generator. Failure here is a hard ingestion failure: there is nothing to
// ingest without text.
package textsource

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	apperrors "github.com/subarna-sahoo/portcast-project-assignment/pkg/errors"
)

// maxBodySize bounds a misbehaving upstream response.
const maxBodySize = 1 << 20

// Client fetches passages over HTTP.
type Client struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// New creates a Client with a bounded request timeout.
func New(cfg config.TextSourceConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:    cfg.URL,
		http:   &http.Client{Timeout: timeout},
		logger: slog.Default().With("component", "text-source"),
	}
}

// Fetch returns one passage of text from the upstream generator.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrTextSourceUnavailable, 503, "building request: %v", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrTextSourceUnavailable, 503, "fetching passage: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.Newf(apperrors.ErrTextSourceUnavailable, 503, "fetching passage: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrTextSourceUnavailable, 503, "reading passage body: %v", err)
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", apperrors.New(apperrors.ErrTextSourceUnavailable, 503, "empty passage body")
	}
	c.logger.Debug("passage fetched", "bytes", len(text))
	return text, nil
}

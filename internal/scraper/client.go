package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"namefinder/internal/config"
	apperrors "namefinder/internal/errors"
)

// maxBodySize bounds any single download; names.zip is well under it
const maxBodySize = 64 << 20

// Client fetches documents from the SSA site. Requests are spaced by the
// configured interval no matter how many goroutines share the client.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewClient creates a client from the refresh configuration
func NewClient(cfg config.RefreshConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With(slog.String("component", "ssa_client")),
	}
}

// StatusError reports a response with an unexpected status code
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Get fetches path relative to the base URL and returns the body
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("request failed", err).WithContext("url", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError("unexpected status", &StatusError{URL: url, StatusCode: resp.StatusCode}).
			WithContext("url", url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read response", err).WithContext("url", url)
	}

	c.logger.Debug("Fetched document",
		slog.String("url", url),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))
	return body, nil
}

// Package storage talks to the external media store. The service keeps
// only opaque URL strings; the bytes live elsewhere. Cleanup is
// best-effort: failures are logged and swallowed, never propagated into
// the primary operation's result.
package storage

import (
	"context"
	"net/http"
	"time"

	"ripple/internal/middleware"

	"golang.org/x/sync/errgroup"
)

// Cleaner removes stored media objects after their owning rows are gone.
type Cleaner interface {
	Remove(ctx context.Context, urls []string)
}

const (
	cleanupTimeout     = 10 * time.Second
	cleanupConcurrency = 4
)

// HTTPCleaner issues a DELETE per stored URL against the media store.
type HTTPCleaner struct {
	client *http.Client
}

// NewHTTPCleaner creates a cleaner with a bounded-timeout HTTP client.
func NewHTTPCleaner() *HTTPCleaner {
	return &HTTPCleaner{client: &http.Client{Timeout: cleanupTimeout}}
}

// Remove fans out one DELETE per URL. Any failure is logged and
// swallowed; the rows referencing these URLs are already gone and a
// stray blob is preferable to a failed deletion.
func (c *HTTPCleaner) Remove(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cleanupConcurrency)
	for _, url := range urls {
		url := url
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
			if err != nil {
				middleware.Logger.WarnContext(ctx, "media cleanup skipped",
					"url", url, "error", err.Error())
				return nil
			}
			resp, err := c.client.Do(req)
			if err != nil {
				middleware.Logger.WarnContext(ctx, "media cleanup failed",
					"url", url, "error", err.Error())
				return nil
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode >= 400 {
				middleware.Logger.WarnContext(ctx, "media cleanup rejected",
					"url", url, "status", resp.StatusCode)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// NopCleaner discards cleanup requests. Used in tests and when no media
// store is configured.
type NopCleaner struct{}

func (NopCleaner) Remove(context.Context, []string) {}

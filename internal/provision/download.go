// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

type (
	// Downloader fetches a remote file to a local path. The Provisioner uses
	// it for the conda installer; tests inject a fake.
	Downloader interface {
		Fetch(ctx context.Context, url, dest string) error
	}

	// HTTPDownloader downloads over plain HTTP(S).
	HTTPDownloader struct {
		client    *http.Client
		userAgent string
	}

	// HTTPDownloaderOption configures an HTTPDownloader.
	HTTPDownloaderOption func(*HTTPDownloader)
)

// NewHTTPDownloader creates a downloader using http.DefaultClient.
func NewHTTPDownloader(opts ...HTTPDownloaderOption) *HTTPDownloader {
	d := &HTTPDownloader{
		client:    http.DefaultClient,
		userAgent: "grootpod",
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// WithHTTPClient overrides the HTTP client (timeouts, proxies, test servers).
func WithHTTPClient(c *http.Client) HTTPDownloaderOption {
	return func(d *HTTPDownloader) {
		if c != nil {
			d.client = c
		}
	}
}

// Fetch downloads url to dest, creating or truncating the destination file.
// Partial downloads are removed so a failed fetch never leaves a half-written
// installer behind.
func (d *HTTPDownloader) Fetch(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return out.Close()
}

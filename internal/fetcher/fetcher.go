// Package fetcher acquires the pricing and directory source files over
// HTTP or FTP and parses CSV/TSV, XLSX, and ZIP payloads.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote source files.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL into path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)

	// DownloadIfChanged fetches the URL only if its ETag differs from
	// etag. Returns (body, newETag, changed, error); when unchanged, body
	// is nil and changed is false.
	DownloadIfChanged(ctx context.Context, url string, etag string) (io.ReadCloser, string, bool, error)
}

// Package fetcher downloads remote resources with per-host rate limiting and retry.
package fetcher

import "context"

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Get fetches the URL and returns the full response body.
	// A non-2xx final status is an error.
	Get(ctx context.Context, url string) ([]byte, error)
}

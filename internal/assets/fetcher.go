// Package assets retrieves binary assets (event banners, fighter headshots)
// from upstream publishers and hands them to the external storage
// collaborator. Failures here never abort an import: callers fall back to the
// upstream URL.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// ErrPlaceholder marks an upstream URL recognized as a stock placeholder
// (silhouette) image. Placeholders are treated as "no image" and never
// fetched.
var ErrPlaceholder = errors.New("placeholder image")

// FetchError is the typed failure surfaced after retries are exhausted or the
// storage collaborator rejects the upload.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching asset %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Storage is the external object-storage collaborator. Upload fails with an
// error on network or quota failure; the caller must tolerate that.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Config holds fetcher tuning. The values are run configuration, not
// business logic.
type Config struct {
	MaxAttempts        int
	Backoff            time.Duration // linear: attempt n waits n * Backoff
	RequestTimeout     time.Duration
	MaxBytes           int64
	PlaceholderMarkers []string
}

// DefaultConfig returns the default fetcher configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:        3,
		Backoff:            2 * time.Second,
		RequestTimeout:     15 * time.Second,
		MaxBytes:           10 << 20,
		PlaceholderMarkers: []string{"silhouette", "placeholder", "default-avatar"},
	}
}

// Fetcher downloads remote images with bounded retry and linear backoff.
type Fetcher struct {
	storage Storage
	client  *http.Client
	config  *Config
}

// NewFetcher creates a fetcher backed by the given storage collaborator.
func NewFetcher(storage Storage, config *Config) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}
	return &Fetcher{
		storage: storage,
		client:  &http.Client{Timeout: config.RequestTimeout},
		config:  config,
	}
}

// Fetch downloads the image at imageURL and uploads it under a key derived
// from entityName, returning the storage collaborator's public reference.
// An empty URL returns empty with no error; a recognized placeholder returns
// ErrPlaceholder; exhausted retries or a storage failure return a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, imageURL, entityName string) (string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return "", nil
	}

	lower := strings.ToLower(imageURL)
	for _, marker := range f.config.PlaceholderMarkers {
		if strings.Contains(lower, marker) {
			return "", fmt.Errorf("%w: %s", ErrPlaceholder, imageURL)
		}
	}

	var (
		data        []byte
		contentType string
		lastErr     error
	)

	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		data, contentType, lastErr = f.download(ctx, imageURL)
		if lastErr == nil {
			break
		}

		if attempt < f.config.MaxAttempts {
			wait := time.Duration(attempt) * f.config.Backoff
			select {
			case <-ctx.Done():
				return "", &FetchError{URL: imageURL, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}
	}

	if lastErr != nil {
		return "", &FetchError{URL: imageURL, Attempts: f.config.MaxAttempts, Err: lastErr}
	}

	ref, err := f.storage.Upload(ctx, storageKey(imageURL, entityName), contentType, data)
	if err != nil {
		return "", &FetchError{URL: imageURL, Attempts: f.config.MaxAttempts, Err: fmt.Errorf("storage upload: %w", err)}
	}

	return ref, nil
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty response body")
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// storageKey derives a stable object key from the entity name and the
// upstream file extension.
func storageKey(imageURL, entityName string) string {
	ext := ".jpg"
	if u, err := url.Parse(imageURL); err == nil {
		if e := path.Ext(u.Path); e != "" && len(e) <= 5 {
			ext = e
		}
	}

	slug := strings.ToLower(strings.TrimSpace(entityName))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "asset"
	}

	return slug + ext
}

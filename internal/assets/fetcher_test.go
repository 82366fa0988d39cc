package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	keys    []string
	failErr error
}

func (m *memStorage) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	if m.failErr != nil {
		return "", m.failErr
	}
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func quickConfig() *Config {
	cfg := DefaultConfig()
	cfg.Backoff = time.Millisecond
	cfg.RequestTimeout = time.Second
	return cfg
}

func TestFetchStoresImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	storage := &memStorage{}
	f := NewFetcher(storage, quickConfig())

	ref, err := f.Fetch(context.Background(), srv.URL+"/headshots/hunt.png", "Lorenzo Hunt")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/lorenzo-hunt.png", ref)
	assert.Equal(t, []string{"lorenzo-hunt.png"}, storage.keys)
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(&memStorage{}, quickConfig())

	ref, err := f.Fetch(context.Background(), srv.URL+"/banner.jpg", "BKFC 50")
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(&memStorage{}, quickConfig())

	_, err := f.Fetch(context.Background(), srv.URL+"/banner.jpg", "BKFC 50")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchSkipsPlaceholders(t *testing.T) {
	f := NewFetcher(&memStorage{}, quickConfig())

	_, err := f.Fetch(context.Background(), "https://cdn.bkfc.com/images/fighter-silhouette.png", "Unknown")
	assert.ErrorIs(t, err, ErrPlaceholder)

	// Empty URL is simply "no image", not an error.
	ref, err := f.Fetch(context.Background(), "", "Unknown")
	require.NoError(t, err)
	assert.Empty(t, ref)
}

func TestFetchSurfacesStorageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(&memStorage{failErr: assert.AnError}, quickConfig())

	_, err := f.Fetch(context.Background(), srv.URL+"/banner.jpg", "BKFC 50")
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "lorenzo-hunt.png", storageKey("https://x.com/a/b.png", "Lorenzo Hunt"))
	assert.Equal(t, "bkfc-50.jpg", storageKey("https://x.com/no-extension", "BKFC 50"))
	assert.Equal(t, "asset.jpg", storageKey("https://x.com/a", "  "))
}

package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPStorage uploads assets to an S3-style HTTP object store: a PUT to
// <base>/<key> with a bearer token, returning the public URL of the object.
type HTTPStorage struct {
	BaseURL   string
	PublicURL string
	Token     string
	Client    *http.Client
}

// NewHTTPStorage creates an HTTP storage client. publicURL defaults to
// baseURL when empty.
func NewHTTPStorage(baseURL, publicURL, token string) *HTTPStorage {
	if publicURL == "" {
		publicURL = baseURL
	}
	return &HTTPStorage{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		PublicURL: strings.TrimRight(publicURL, "/"),
		Token:     token,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores the object and returns its public reference.
func (s *HTTPStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.BaseURL+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("uploading %s: status %d: %s", key, resp.StatusCode, string(body))
	}

	return s.PublicURL + "/" + key, nil
}

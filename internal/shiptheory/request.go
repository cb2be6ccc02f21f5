package shiptheory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultBaseURL   = "https://api.shiptheory.com/v1"
	partnerTagHeader = "Shiptheory-Partner-Tag"
)

// requestBuilder addresses requests against the versioned API root.
type requestBuilder struct {
	base       *url.URL
	partnerTag string
}

func newRequestBuilder(baseURL, partnerTag string) (*requestBuilder, error) {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse shiptheory base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("shiptheory base url %q must be absolute", baseURL)
	}
	return &requestBuilder{base: parsed, partnerTag: partnerTag}, nil
}

// Build returns a request for path carrying the JSON headers and the bearer
// token. body is sent as is; nil means no body.
func (b *requestBuilder) Build(ctx context.Context, method, path, token string, body []byte) (*http.Request, error) {
	target, err := b.resolve(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, reader)
	if err != nil {
		return nil, fmt.Errorf("create shiptheory request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if b.partnerTag != "" {
		req.Header.Set(partnerTagHeader, b.partnerTag)
	}
	// Authorization goes last so nothing above can replace it.
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (b *requestBuilder) resolve(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse request path %q: %w", path, err)
	}

	u := *b.base
	basePath := strings.TrimSuffix(b.base.Path, "/")
	u.Path = basePath + ref.Path
	if ref.RawPath != "" {
		u.RawPath = strings.TrimSuffix(b.base.EscapedPath(), "/") + ref.RawPath
	} else {
		u.RawPath = ""
	}
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

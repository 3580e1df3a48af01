// Package appstore is a typed JSON:API client for the App Store Connect analytics endpoints.
package appstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aevon-lab/asc-analytics/internal/auth"
	apperr "github.com/aevon-lab/asc-analytics/internal/core/errors"
	"github.com/aevon-lab/asc-analytics/internal/metrics"
)

const (
	maxErrorBody = 64 << 10
	maxListPages = 50
)

// Client performs authenticated GET/POST requests against the provider API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenSource
	breaker *Breaker
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A zero Timeout is filled from NewClient's timeout.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithBreaker wraps every request in the given circuit breaker.
func WithBreaker(b *Breaker) ClientOption {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a Client for baseURL (e.g. https://api.appstoreconnect.apple.com/v1).
// timeout bounds every request so no call hangs indefinitely.
func NewClient(baseURL string, tokens auth.TokenSource, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = timeout
	}
	return c
}

// URL joins path segments onto the base URL, escaping each segment.
func (c *Client) URL(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(strings.Trim(s, "/")))
	}
	return b.String()
}

// Get issues a GET to rawURL with query params and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, out interface{}) error {
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + params.Encode()
	}
	return c.do(ctx, http.MethodGet, rawURL, nil, out)
}

// Post issues a POST with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, rawURL string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, payload, out)
}

// ListAll follows links.next from rawURL and returns every resource across pages.
func ListAll[A any](ctx context.Context, c *Client, rawURL string, params url.Values) ([]Resource[A], error) {
	var all []Resource[A]
	next := rawURL
	for page := 0; next != "" && page < maxListPages; page++ {
		var doc ListDocument[A]
		if err := c.Get(ctx, next, params, &doc); err != nil {
			return nil, err
		}
		all = append(all, doc.Data...)
		next = doc.Links.Next
		params = nil // next links already carry the query
	}
	if next != "" {
		slog.Warn("[AppStoreClient] Page limit reached, listing truncated", "url", rawURL, "pages", maxListPages)
	}
	return all, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte, out interface{}) error {
	call := func() ([]byte, error) { return c.roundTrip(ctx, method, rawURL, payload) }

	var (
		body []byte
		err  error
	)
	if c.breaker != nil {
		body, err = c.breaker.Execute(call)
	} else {
		body, err = call()
	}
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, rawURL, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("[AppStoreClient] Request", "method", method, "url", rawURL)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(method, 0, time.Since(started))
		return nil, fmt.Errorf("%s %s: request failed: %w", method, rawURL, err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest(method, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &apperr.HTTPError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response (status %d): %w", method, rawURL, resp.StatusCode, err)
	}
	return body, nil
}

// Package client is the programmatic counterpart of the web UI's data layer:
// a query cache with prefix invalidation, a mutation coordinator that
// serializes writes per resource, and a poller for live views.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"linkdesk/internal/logger"
)

// Key is a hierarchical resource key, e.g. {"orders", "5", "comments"}.
// Invalidating a key also invalidates every key it prefixes.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// Path maps a resource key onto its API path.
func (k Key) Path() string {
	return "/api/" + strings.Join(k, "/")
}

// HasPrefix reports whether prefix is a segment-wise prefix of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

type entry struct {
	key   Key
	data  json.RawMessage
	stale bool
}

// Client wraps the HTTP surface with cookie-session credentials.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *logger.Logger

	// ReturnNullOn401 makes unauthorized reads resolve to a nil result
	// instead of ErrUnauthorized, for call sites that render "logged out"
	// rather than failing.
	ReturnNullOn401 bool
}

// New builds a client with a cookie jar so the session cookie set at login
// rides along on every call.
func New(baseURL string, log *logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Jar: jar},
		Logger:  log,
	}
}

// Request performs one HTTP call. A non-nil body is sent as JSON. 401 maps
// to ErrUnauthorized (or a nil result in ReturnNullOn401 mode), other non-2xx
// statuses to *RequestError, transport failures are wrapped so callers can
// distinguish network errors from server rejections.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if c.ReturnNullOn401 {
			return nil, nil
		}
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &RequestError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if len(data) == 0 {
		return nil, nil
	}

	// Legacy endpoints occasionally answer with a non-JSON content type;
	// that is worth a warning but not a failure.
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "" && mediaType != "application/json" && c.Logger != nil {
		c.Logger.Warn("CLIENT", fmt.Sprintf("%s %s returned content type %q, expected JSON", method, path, mediaType))
	}

	return json.RawMessage(data), nil
}

// Cache is the read side: Get serves a fresh cached value or fetches,
// Invalidate marks a key and all its descendants stale so the next read
// refetches. Safe for concurrent use.
type Cache struct {
	client *Client

	mu      sync.Mutex
	entries map[string]*entry
}

func NewCache(client *Client) *Cache {
	return &Cache{
		client:  client,
		entries: make(map[string]*entry),
	}
}

// Get returns the cached value for key, fetching on a miss or a stale entry.
func (c *Cache) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	c.mu.Lock()
	if e, ok := c.entries[key.String()]; ok && !e.stale {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	data, err := c.client.Request(ctx, http.MethodGet, key.Path(), nil)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key.String()] = &entry{key: key, data: data}
	c.mu.Unlock()
	return data, nil
}

// GetInto unmarshals the cached (or fetched) value into v. A nil payload
// (401 in ReturnNull mode, empty body) leaves v untouched.
func (c *Cache) GetInto(ctx context.Context, key Key, v any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Invalidate marks the key and every descendant sharing the prefix stale.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.key.HasPrefix(key) {
			e.stale = true
		}
	}
}

// Clear drops every entry, e.g. after logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

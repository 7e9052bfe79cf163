package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkdesk/internal/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, logger.NewDiscardLogger()), srv
}

func TestCacheGetCachesUntilInvalidated(t *testing.T) {
	var hits int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"o1"}]`))
	}))
	cache := NewCache(c)

	ctx := context.Background()
	_, err := cache.Get(ctx, Key{"orders"})
	require.NoError(t, err)
	_, err = cache.Get(ctx, Key{"orders"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second read should be served from cache")

	cache.Invalidate(Key{"orders"})
	_, err = cache.Get(ctx, Key{"orders"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits), "invalidated read should refetch")
}

func TestCachePrefixInvalidation(t *testing.T) {
	var hits int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	cache := NewCache(c)
	ctx := context.Background()

	_, err := cache.Get(ctx, Key{"orders", "5", "comments"})
	require.NoError(t, err)
	_, err = cache.Get(ctx, Key{"domains"})
	require.NoError(t, err)
	require.Equal(t, int64(2), atomic.LoadInt64(&hits))

	// Invalidating the parent must invalidate every descendant of the prefix.
	cache.Invalidate(Key{"orders"})

	_, err = cache.Get(ctx, Key{"orders", "5", "comments"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits), "descendant key should refetch after parent invalidation")

	_, err = cache.Get(ctx, Key{"domains"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&hits), "unrelated key should stay cached")
}

func TestRequestUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	}))

	_, err := c.Request(context.Background(), http.MethodGet, "/api/orders", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// ReturnNull mode resolves 401 to a nil result instead of an error.
	c.ReturnNullOn401 = true
	data, err := c.Request(context.Background(), http.MethodGet, "/api/orders", nil)
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestRequestErrorCarriesStatusAndBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "domain rating out of range", http.StatusBadRequest)
	}))

	_, err := c.Request(context.Background(), http.MethodPost, "/api/domains", map[string]string{})
	require.Error(t, err)

	reqErr, ok := err.(*RequestError)
	require.True(t, ok, "expected *RequestError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "domain rating out of range", reqErr.Body)
	assert.Equal(t, "domain rating out of range", ServerMessage(err))
}

func TestRequestNonJSONContentTypeIsNotFatal(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Website URL,Type\n"))
	}))

	data, err := c.Request(context.Background(), http.MethodGet, "/api/domains/export", nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Website URL")
}

func TestRequestNetworkErrorIsWrapped(t *testing.T) {
	c := New("http://127.0.0.1:1", logger.NewDiscardLogger())
	_, err := c.Request(context.Background(), http.MethodGet, "/api/orders", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	var reqErr *RequestError
	assert.NotErrorAs(t, err, &reqErr)
}

func TestKeyHasPrefix(t *testing.T) {
	k := Key{"orders", "5", "comments"}
	assert.True(t, k.HasPrefix(Key{"orders"}))
	assert.True(t, k.HasPrefix(Key{"orders", "5"}))
	assert.True(t, k.HasPrefix(k))
	assert.False(t, k.HasPrefix(Key{"orders", "6"}))
	assert.False(t, k.HasPrefix(Key{"domains"}))
	assert.False(t, Key{"orders"}.HasPrefix(k))
}

package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchStoresAndRevalidates(t *testing.T) {
	const payload = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	first, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, payload, string(first.Body))

	second, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "304 must reuse the cached body")
	assert.Equal(t, payload, string(second.Body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetchFallsBackToCacheOnServerError(t *testing.T) {
	const payload = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	var fail atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	_, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)

	fail.Store(true)
	res, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, payload, string(res.Body))
}

func TestFetchErrors(t *testing.T) {
	t.Run("empty URL", func(t *testing.T) {
		f := NewFetcher(t.TempDir())
		_, err := f.Fetch(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("non-OK without cache is terminal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewFetcher(t.TempDir())
		_, err := f.Fetch(context.Background(), srv.URL)
		assert.Error(t, err)
	})
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t,
		"https://example.com/...(redacted)",
		redactURL("https://example.com/private/feed.ics?token=secret"))
	assert.Equal(t, "ics://...(redacted)", redactURL("no scheme here"))
}

package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Endpoint: srv.URL + "/%s/json/",
		Timeout:  200 * time.Millisecond,
		CacheTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c, &hits
}

func TestResolve_Success(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"country_name":"United States","region":"California","city":"Mountain View"}`))
	})

	loc, ok := c.Resolve(context.Background(), "8.8.8.8")
	require.True(t, ok)
	assert.Equal(t, "United States", loc.Country)
	assert.Equal(t, "California", loc.Region)
	assert.Equal(t, "Mountain View", loc.City)

	c.cache.Wait()

	loc, ok = c.Resolve(context.Background(), "8.8.8.8")
	require.True(t, ok)
	assert.Equal(t, "Mountain View", loc.City)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestResolve_PrivateAddressesSkipLookup(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected lookup for %s", r.URL.Path)
	})

	for _, ip := range []string{"127.0.0.1", "10.0.0.5", "192.168.1.1", "::1", "not-an-ip", ""} {
		_, ok := c.Resolve(context.Background(), ip)
		assert.False(t, ok, ip)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "rate limited body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(500 * time.Millisecond)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			loc, ok := c.Resolve(context.Background(), "1.1.1.1")
			assert.False(t, ok)
			assert.Nil(t, loc)
		})
	}
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()
	store, err := NewTokenStore(TokenStoreConfig{FileMode: false})
	require.NoError(t, err)
	return store
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetTokens("token-abc", "refresh-abc"))
	client := NewClient(server.URL, store)

	require.NoError(t, client.Get(context.Background(), "/api/sensors", nil))
	assert.Equal(t, "Bearer token-abc", gotAuth)
}

func TestClient_NoBearerWithoutToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newTestStore(t))

	require.NoError(t, client.Get(context.Background(), "/api/sensors", nil))
	assert.Empty(t, gotAuth)
}

func TestClient_JSONContentType(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newTestStore(t))
	require.NoError(t, client.Post(context.Background(), "/api/companies", map[string]string{"name": "acme"}, nil))
	assert.Equal(t, "application/json", gotContentType)
}

func TestClient_UploadOmitsJSONContentType(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("avatar")
		require.NoError(t, err)
		assert.Equal(t, "me.png", header.Filename)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetTokens("token-abc", ""))
	client := NewClient(server.URL, store)

	err := client.Upload(context.Background(), "/api/auth/me/avatar", "avatar", "me.png", strings.NewReader("png-bytes"), nil)
	require.NoError(t, err)
	assert.NotContains(t, gotContentType, "application/json")
	assert.Contains(t, gotContentType, "multipart/form-data")
}

func TestClient_SingleFlightRefresh(t *testing.T) {
	const concurrent = 8

	var (
		refreshCalls  atomic.Int64
		served401     atomic.Int64
		all401Served  = make(chan struct{})
		closeGateOnce sync.Once
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		// Hold the refresh until every request has received its 401 and
		// joined the coordinator, then give stragglers a moment to join.
		<-all401Served
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"accessToken":"new-token","expiresIn":900}`))
	})
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new-token" {
			if served401.Add(1) == concurrent {
				closeGateOnce.Do(func() { close(all401Served) })
			}
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[],"total":0}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetTokens("stale-token", "refresh-abc"))
	client := NewClient(server.URL, store)

	var wg sync.WaitGroup
	errs := make([]error, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.Get(context.Background(), "/api/alerts", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int64(1), refreshCalls.Load(), "expected exactly one refresh call")

	access, ok := store.AccessToken()
	require.True(t, ok)
	assert.Equal(t, "new-token", access)
}

func TestClient_AtMostOneRetry(t *testing.T) {
	var (
		protectedCalls atomic.Int64
		refreshCalls   atomic.Int64
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Write([]byte(`{"accessToken":"new-token","expiresIn":900}`))
	})
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		// Still 401 even with the fresh token: the retried call must fail
		// instead of looping into a second refresh cycle.
		protectedCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetTokens("stale-token", "refresh-abc"))
	client := NewClient(server.URL, store)

	err := client.Get(context.Background(), "/api/alerts", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err), "expected 401 APIError, got %v", err)

	assert.Equal(t, int64(2), protectedCalls.Load(), "original call plus exactly one retry")
	assert.Equal(t, int64(1), refreshCalls.Load())
}

func TestClient_RefreshFailureSurfacesSessionExpired(t *testing.T) {
	var expiredFired atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetTokens("stale-token", "refresh-abc"))
	client := NewClient(server.URL, store)
	client.Refresher().SetSessionExpiredHandler(func() {
		expiredFired.Add(1)
	})

	err := client.Get(context.Background(), "/api/alerts", nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(1), expiredFired.Load())

	_, ok := store.AccessToken()
	assert.False(t, ok, "tokens must be cleared after terminal refresh failure")
}

func TestClient_APIErrorCarriesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"serial number is required"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newTestStore(t))
	err := client.Post(context.Background(), "/api/sensors", map[string]string{}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "serial number is required", apiErr.Message)
}

func TestClient_NotFoundMatchesSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, newTestStore(t))
	err := client.Get(context.Background(), "/api/alerts/missing", nil)
	assert.True(t, IsNotFound(err))
}

func TestClient_EmptyBodyTolerated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, newTestStore(t))
	var out map[string]any
	assert.NoError(t, client.Delete(context.Background(), "/api/auth/me/avatar", &out))
}

func TestClient_PublicRequestSkipsRefresh(t *testing.T) {
	var refreshCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		w.Write([]byte(`{"accessToken":"new-token","expiresIn":900}`))
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid credentials"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := newTestStore(t)
	require.NoError(t, store.SetTokens("token-abc", "refresh-abc"))
	client := NewClient(server.URL, store)

	err := client.PostPublic(context.Background(), "/api/auth/login", map[string]string{"email": "x"}, nil)
	assert.True(t, IsUnauthorized(err), "login 401 must surface as APIError, got %v", err)
	assert.Equal(t, int64(0), refreshCalls.Load(), "public endpoints must not trigger refresh")
}

func TestClient_RequestIDHeaderSet(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, newTestStore(t))
	require.NoError(t, client.Get(context.Background(), "/api/sensors", nil))
	assert.NotEmpty(t, gotRequestID)
}

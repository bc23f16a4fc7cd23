package gateway

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

func newTestClient(t *testing.T, handler http.HandlerFunc) (*UserClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewUserClient(srv.URL, 500*time.Millisecond), srv
}

func TestExistsConfirmed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/42", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":42,"email":"diner@example.com"}`))
	})

	require.NoError(t, client.Exists(context.Background(), 42))
}

func TestExistsNotFound(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Exists(context.Background(), 999)
	require.ErrorIs(t, err, ErrUserNotFound)
	// a definitive not-found answer must not be retried
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExistsServerErrorIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Exists(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestExistsRetriesOnceOnUnavailable(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.Exists(context.Background(), 7))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExistsTimeoutIsUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})

	start := time.Now()
	err := client.Exists(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnavailable)
	// one attempt plus one retry, both bounded by the client timeout
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExistsConnectionRefusedIsUnavailable(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := client.Exists(context.Background(), 1)
	require.ErrorIs(t, err, ErrUnavailable)
}

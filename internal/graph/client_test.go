package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type failingToken struct{ err error }

func (f failingToken) Token() (string, error) { return "", f.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, srv.Client(), staticToken("tok-123"), discardLogger())
	c.sleepFunc = noopSleep
	return c
}

func TestDoSetsHeaders(t *testing.T) {
	var gotAuth, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{}`)
	})

	resp, err := c.Do(context.Background(), http.MethodGet, "/me/drive", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, userAgent, gotUA)
}

func TestDoTokenError(t *testing.T) {
	tokenErr := errors.New("no token available")
	c := NewClient("http://unused.invalid", nil, failingToken{err: tokenErr}, discardLogger())
	c.sleepFunc = noopSleep

	_, err := c.Do(context.Background(), http.MethodGet, "/me/drive", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, tokenErr)
}

func TestDoRetriesThrottling(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{}`)
	})

	resp, err := c.Do(context.Background(), http.MethodGet, "/me/drive", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 3, calls)
}

func TestDoRetriesServerError(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{}`)
	})

	resp, err := c.Do(context.Background(), http.MethodGet, "/me/drive", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 2, calls)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/me/drive", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, maxRetries+1, calls)
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": "itemNotFound", "message": "The resource could not be found."}}`)
	})

	_, err := c.Do(context.Background(), http.MethodGet, "/drives/d1/items/nope", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, calls)
}

func TestDoDoesNotRetryRequestsWithBodies(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Do(context.Background(), http.MethodPost, "/search/query", strings.NewReader(`{}`))
	require.Error(t, err)
	assert.Equal(t, 1, calls, "requests with bodies cannot be replayed")
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrThrottled},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusBadGateway, ErrServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error": {"code": "x", "message": "y"}}`)
			})

			_, err := c.Do(context.Background(), http.MethodGet, "/me/drive", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestCalcBackoffBounds(t *testing.T) {
	c := &Client{}
	for attempt := 0; attempt < 10; attempt++ {
		d := c.calcBackoff(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, d, maxBackoff+maxBackoff/4, "attempt %d", attempt)
	}
}

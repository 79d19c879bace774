package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveAlwaysOK(t *testing.T) {
	h := New()
	w := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyGateStartsClosed(t *testing.T) {
	h := New()
	w := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "starting")
}

func TestReadyAfterSetReady(t *testing.T) {
	h := New()
	h.SetReady(true)
	w := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyGateClosesForShutdown(t *testing.T) {
	h := New()
	h.SetReady(true)
	require.Equal(t, http.StatusOK, probe(t, h.ReadyEndpoint).Code)

	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, probe(t, h.ReadyEndpoint).Code)
}

func TestFailingCheckMakesUnready(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("database", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	w := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestPassingChecksReported(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("database", time.Second, func(context.Context) error { return nil })

	w := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
}

func TestCheckHonorsTimeout(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	start := time.Now()
	w := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

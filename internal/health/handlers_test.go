package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mandi/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func probeReady(t *testing.T, h health.Handler) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	if rr.Body.Len() > 0 && json.Valid(rr.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	}
	return rr, status
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestReadyAllDependenciesUp(t *testing.T) {
	rr, status := probeReady(t, health.Handler{Checker: stubChecker{}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", status["db"])
	assert.Equal(t, "ok", status["redis"])
}

func TestReadyReportsFailingDependency(t *testing.T) {
	checker := stubChecker{redisErr: errors.New("redis: connection refused")}
	rr, status := probeReady(t, health.Handler{Checker: checker})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "ok", status["db"])
	assert.Equal(t, "redis: connection refused", status["redis"])
}

func TestReadyWithoutChecker(t *testing.T) {
	rr, _ := probeReady(t, health.Handler{})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestReadyGateClosesOnShutdown(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })
	handler := health.Handler{Checker: stubChecker{}}

	health.SetReady(false)
	rr, _ := probeReady(t, handler)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	health.SetReady(true)
	rr, _ = probeReady(t, handler)
	assert.Equal(t, http.StatusOK, rr.Code)
}

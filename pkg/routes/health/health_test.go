package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	err error
}

func (f *fakeRedis) Ping() error {
	return f.err
}

type fakeRetrieval struct {
	ready bool
	err   error
}

func (f *fakeRetrieval) Ready(ctx context.Context) (bool, error) {
	return f.ready, f.err
}

func getHealth(checker *Checker, path string) *httptest.ResponseRecorder {
	e := echo.New()
	checker.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLive(t *testing.T) {
	checker := NewChecker(nil, nil, nil, "test")
	rec := getHealth(checker, "/api/v1/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReady_TogglesWithState(t *testing.T) {
	checker := NewChecker(nil, nil, nil, "test")

	rec := getHealth(checker, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.SetReady(true)
	rec = getHealth(checker, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	checker.SetReady(false)
	rec = getHealth(checker, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth_NoDatabaseIsUnhealthy(t *testing.T) {
	checker := NewChecker(nil, nil, nil, "test")

	rec := getHealth(checker, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	require.Contains(t, status.Checks, "database")
	assert.Equal(t, "unhealthy", status.Checks["database"].Status)
}

func TestHealth_RedisFailureIsUnhealthy(t *testing.T) {
	checker := NewChecker(nil, &fakeRedis{err: errors.New("connection refused")}, nil, "test")

	rec := getHealth(checker, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Contains(t, status.Checks, "redis")
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}

func TestHealth_RetrievalFailureOnlyDegrades(t *testing.T) {
	tests := []struct {
		name      string
		retrieval *fakeRetrieval
		message   string
	}{
		{name: "probe error", retrieval: &fakeRetrieval{err: errors.New("dial tcp: refused")}, message: "dial tcp: refused"},
		{name: "not ready", retrieval: &fakeRetrieval{ready: false}, message: "weaviate reports not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(nil, nil, tt.retrieval, "test")

			rec := getHealth(checker, "/api/v1/health")

			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			require.Contains(t, status.Checks, "retrieval")
			assert.Equal(t, "degraded", status.Checks["retrieval"].Status)
			assert.Equal(t, tt.message, status.Checks["retrieval"].Message)
			// The database check drives the overall verdict; retrieval never does.
			assert.Equal(t, "unhealthy", status.Checks["database"].Status)
		})
	}
}

func TestHealth_HealthyRetrievalReportsLatency(t *testing.T) {
	checker := NewChecker(nil, nil, &fakeRetrieval{ready: true}, "test")

	rec := getHealth(checker, "/api/v1/health")

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Contains(t, status.Checks, "retrieval")
	assert.Equal(t, "healthy", status.Checks["retrieval"].Status)
	assert.NotEmpty(t, status.Checks["retrieval"].Latency)
}

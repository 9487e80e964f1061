package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Health(t *testing.T) {
	t.Parallel()

	c := NewChecker("1.2.3")
	w := httptest.NewRecorder()
	c.HealthHandler()(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestChecker_Readiness(t *testing.T) {
	t.Parallel()

	failing := func(context.Context) error { return errors.New("connection refused") }
	passing := func(context.Context) error { return nil }

	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus Status
		wantCode   int
	}{
		{name: "no checks", wantStatus: StatusHealthy, wantCode: http.StatusOK},
		{
			name:       "all passing",
			checks:     map[string]CheckFunc{"redis": ErrorCheck(true, passing)},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name: "non-critical failure",
			checks: map[string]CheckFunc{
				"redis": ErrorCheck(false, failing),
				"other": ErrorCheck(true, passing),
			},
			wantStatus: StatusDegraded,
			wantCode:   http.StatusOK,
		},
		{
			name: "critical failure wins",
			checks: map[string]CheckFunc{
				"a": ErrorCheck(false, failing),
				"b": ErrorCheck(true, failing),
			},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewChecker("test")
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			w := httptest.NewRecorder()
			c.ReadinessHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, w.Code)

			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestChecker_Draining(t *testing.T) {
	t.Parallel()

	c := NewChecker("test")
	c.RegisterCheck("redis", ErrorCheck(true, func(context.Context) error { return nil }))
	c.SetDraining()

	w := httptest.NewRecorder()
	c.ReadinessHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"draining"`)

	health := httptest.NewRecorder()
	c.HealthHandler()(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, health.Code, "liveness is unaffected by draining")
}

func TestChecker_CheckReceivesDeadline(t *testing.T) {
	t.Parallel()

	c := NewChecker("test")
	var hasDeadline bool
	c.RegisterCheck("probe", func(ctx context.Context) Check {
		_, hasDeadline = ctx.Deadline()
		return Check{Status: StatusHealthy}
	})

	c.Readiness(context.Background())
	assert.True(t, hasDeadline)
}

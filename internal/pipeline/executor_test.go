package pipeline

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects stage invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func passStage(rec *recorder, name string, order int) Stage {
	return StageFunc(name, order, func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		rec.add(name)
		next.ServeHTTP(w, r)
	})
}

func dispatcher(rec *recorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		rec.add("dispatch")
		w.WriteHeader(http.StatusAccepted)
	})
}

func TestExecutor_RunsStagesInOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	exec := New(dispatcher(rec),
		passStage(rec, "idempotency", OrderIdempotency),
		passStage(rec, "observability", OrderObservability),
		passStage(rec, "trace", OrderTraceContext),
		passStage(rec, "ratelimit", OrderRateLimit),
		passStage(rec, "cors", OrderCORS),
	)

	w := httptest.NewRecorder()
	exec.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t,
		[]string{"trace", "observability", "cors", "idempotency", "ratelimit", "dispatch"},
		rec.calls,
	)
	assert.Equal(t,
		[]string{"trace", "observability", "cors", "idempotency", "ratelimit"},
		exec.Stages(),
	)
}

func TestExecutor_SameTierKeepsRegistrationOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	exec := New(dispatcher(rec),
		passStage(rec, "authentication", OrderAuthentication),
		passStage(rec, "idempotency", OrderIdempotency),
	)

	exec.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, []string{"authentication", "idempotency", "dispatch"}, rec.calls)
}

func TestExecutor_ShortCircuitKeepsEarlierHeaders(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	exec := New(dispatcher(rec),
		StageFunc("cors", OrderCORS, func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			rec.add("cors")
			w.Header().Set("Access-Control-Allow-Origin", "*")
			next.ServeHTTP(w, r)
		}),
		StageFunc("reject", OrderAuthentication, func(w http.ResponseWriter, _ *http.Request, _ http.Handler) {
			rec.add("reject")
			w.WriteHeader(http.StatusUnauthorized)
		}),
		passStage(rec, "later", OrderRateLimit),
	)

	w := httptest.NewRecorder()
	exec.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"cors", "reject"}, rec.calls)
}

func TestExecutor_RequestMutationsFlowDownstream(t *testing.T) {
	t.Parallel()

	var seen string
	exec := New(
		http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("X-Stage")
		}),
		StageFunc("mutate", 0, func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			r2 := r.Clone(r.Context())
			r2.Header.Set("X-Stage", "seen")
			next.ServeHTTP(w, r2)
		}),
	)

	exec.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "seen", seen)
}

func TestExecutor_NilDispatcherAndStages(t *testing.T) {
	t.Parallel()

	exec := New(nil, nil)
	require.Empty(t, exec.Stages())

	w := httptest.NewRecorder()
	exec.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIsPreflight(t *testing.T) {
	t.Parallel()

	assert.True(t, IsPreflight(httptest.NewRequest(http.MethodOptions, "/", nil)))
	assert.False(t, IsPreflight(httptest.NewRequest(http.MethodGet, "/", nil)))
}

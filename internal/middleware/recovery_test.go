package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/edgegw/internal/observability"
)

func TestRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
		expectLog      bool
	}{
		{
			name: "no panic",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "ok",
		},
		{
			name:           "panic with string",
			handler:        func(http.ResponseWriter, *http.Request) { panic("boom") },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   ErrInternalServerError,
			expectLog:      true,
		},
		{
			name:           "panic with error",
			handler:        func(http.ResponseWriter, *http.Request) { panic(ErrBodyReadFailure) },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   ErrInternalServerError,
			expectLog:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, logs := newObservedLogger()
			metrics := observability.NewMetrics("test")
			handler := Recovery(logger, metrics)(tt.handler)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedBody, w.Body.String())

			if tt.expectLog {
				assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
				assert.Equal(t, ContentTypeJSON, w.Header().Get("Content-Type"))
				assert.Equal(t, 1.0, metricValue(t, metrics.Registry(), "test_stage_rejections_total",
					map[string]string{"stage": "recovery", "reason": "panic"}))
			} else {
				assert.Zero(t, logs.Len())
			}
		})
	}
}

func TestRecovery_AbortHandlerPropagates(t *testing.T) {
	t.Parallel()

	handler := Recovery(nil, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

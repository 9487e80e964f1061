package util

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// flusherRecorder wraps httptest.ResponseRecorder and records Flush calls.
type flusherRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flusherRecorder) Flush() {
	f.flushed = true
}

// nonFlusherWriter is a ResponseWriter that does NOT implement http.Flusher.
type nonFlusherWriter struct {
	header http.Header
}

func (w *nonFlusherWriter) Header() http.Header         { return w.header }
func (w *nonFlusherWriter) WriteHeader(int)             {}
func (w *nonFlusherWriter) Write(b []byte) (int, error) { return len(b), nil }

func TestStatusCapturingResponseWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handle     func(w http.ResponseWriter)
		wantStatus int
		wantBytes  int64
	}{
		{
			name:       "nothing written",
			handle:     func(http.ResponseWriter) {},
			wantStatus: 0,
		},
		{
			name:       "explicit status",
			handle:     func(w http.ResponseWriter) { w.WriteHeader(http.StatusTeapot) },
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "implicit 200 on write",
			handle:     func(w http.ResponseWriter) { _, _ = w.Write([]byte("hello")) },
			wantStatus: http.StatusOK,
			wantBytes:  5,
		},
		{
			name: "first status wins",
			handle: func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusUnauthorized)
				w.WriteHeader(http.StatusOK)
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			w := NewStatusCapturingResponseWriter(rec)
			tt.handle(w)

			assert.Equal(t, tt.wantStatus, w.StatusCode)
			assert.Equal(t, tt.wantBytes, w.BytesWritten)
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestStatusCapturingResponseWriter_Flush(t *testing.T) {
	t.Parallel()

	fr := &flusherRecorder{ResponseRecorder: httptest.NewRecorder()}
	NewStatusCapturingResponseWriter(fr).Flush()
	assert.True(t, fr.flushed)

	assert.NotPanics(t, func() {
		NewStatusCapturingResponseWriter(&nonFlusherWriter{header: http.Header{}}).Flush()
	})
}

func TestStatusCapturingResponseWriter_Unwrap(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	assert.Same(t, rec, NewStatusCapturingResponseWriter(rec).Unwrap())
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusTooManyRequests, `{"error":"rate limit exceeded"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/util"
)

// Recovery returns a middleware that recovers from panics. It wraps the
// whole pipeline, so a panic in any stage becomes a 500 response.
func Recovery(logger observability.Logger, metrics *observability.Metrics) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// The server already knows how to handle an aborted response.
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.WithContext(r.Context()).Error("panic recovered",
					observability.String("path", r.URL.Path),
					observability.String("method", r.Method),
					observability.Any("error", rec),
					observability.String("stack", string(debug.Stack())),
				)
				metrics.RecordRejection("recovery", "panic")

				util.WriteJSONError(w, http.StatusInternalServerError, ErrInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

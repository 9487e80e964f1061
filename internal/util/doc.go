// Package util provides small helpers shared by the gateway packages.
//
// Response writer wrapper for status capture:
//
//	w := util.NewStatusCapturingResponseWriter(responseWriter)
//	handler.ServeHTTP(w, r)
//	statusCode := w.StatusCode // 0 if the handler wrote nothing
//
// Validation helpers used by the configuration layer:
//
//	err := util.ValidateURL("https://example.com")
//	err := util.ValidateHTTPMethod("POST")
package util

package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vyrodovalexey/edgegw/internal/config"
	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
	"github.com/vyrodovalexey/edgegw/internal/util"
)

var (
	// ErrBodyReadFailure is returned when the request body cannot be drained.
	ErrBodyReadFailure = errors.New("failed to read request body")

	// ErrBodyTooLarge is returned when the body exceeds the buffering cap.
	ErrBodyTooLarge = errors.New("request body exceeds buffering limit")
)

type fingerprintKey struct{}

// ContextWithFingerprint adds a request fingerprint to the context.
func ContextWithFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, fingerprintKey{}, fingerprint)
}

// FingerprintFromContext extracts the request fingerprint from context.
func FingerprintFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(fingerprintKey{}).(string); ok {
		return v
	}
	return ""
}

// Fingerprint returns the lowercase hex SHA-256 of userID, path and body
// joined by "|". An anonymous request uses the empty user id.
func Fingerprint(userID, path string, body []byte) string {
	h := sha256.New()
	_, _ = io.WriteString(h, userID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, path)
	_, _ = io.WriteString(h, "|")
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Idempotency buffers the body of body-bearing requests, derives a content
// fingerprint from it and hands an identical, replayable body downstream.
type Idempotency struct {
	methods map[string]bool
	limit   int64
	logger  observability.Logger
	metrics *observability.Metrics
}

// NewIdempotency creates the idempotency fingerprint stage.
func NewIdempotency(
	cfg config.IdempotencyConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
) *Idempotency {
	if logger == nil {
		logger = observability.NopLogger()
	}

	methods := cfg.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodPost}
	}
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = true
	}

	return &Idempotency{
		methods: set,
		limit:   cfg.BodyLimit(),
		logger:  logger,
		metrics: metrics,
	}
}

// Name implements pipeline.Stage.
func (s *Idempotency) Name() string { return stageIdempotency }

// Order implements pipeline.Stage.
func (s *Idempotency) Order() int { return pipeline.OrderIdempotency }

// Handle drains the body, sets X-Request-Id to the fingerprint and replaces
// the body with a replay of the buffered bytes. A body over the cap gets 413
// and a failed read gets 500; in both cases the chain stops.
func (s *Idempotency) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if pipeline.IsPreflight(r) || !s.methods[r.Method] {
		next.ServeHTTP(w, r)
		return
	}

	body, err := drainBody(r.Context(), r.Body, s.limit)
	if r.Body != nil {
		_ = r.Body.Close()
	}
	if err != nil {
		s.reject(w, r, err)
		return
	}

	fingerprint := Fingerprint(r.Header.Get(headers.UserID), r.URL.Path, body)
	s.metrics.RecordFingerprintBody(len(body))

	r.Header.Set(headers.RequestFingerprint, fingerprint)

	out := r.WithContext(ContextWithFingerprint(r.Context(), fingerprint))
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))

	next.ServeHTTP(w, out)
}

func (s *Idempotency) reject(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.logger.WithContext(r.Context())

	if errors.Is(err, ErrBodyTooLarge) {
		logger.Warn("request body over buffering limit",
			observability.String("path", r.URL.Path),
			observability.Int64("limit", s.limit),
		)
		s.metrics.RecordRejection(stageIdempotency, "body_too_large")
		util.WriteJSONError(w, http.StatusRequestEntityTooLarge, ErrRequestEntityTooLarge)
		return
	}

	logger.Error("request body read failed",
		observability.String("path", r.URL.Path),
		observability.Error(err),
	)
	s.metrics.RecordRejection(stageIdempotency, "body_read_failure")
	util.WriteJSONError(w, http.StatusInternalServerError, ErrRequestBodyUnreadable)
}

// drainBody reads body to the end. limit <= 0 disables the cap. The partial
// buffer is dropped on any error.
func drainBody(ctx context.Context, body io.Reader, limit int64) ([]byte, error) {
	if body == nil || body == http.NoBody {
		return []byte{}, nil
	}

	var reader io.Reader = &contextReader{ctx: ctx, r: body}
	if limit > 0 {
		reader = io.LimitReader(reader, limit+1)
	}

	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBodyReadFailure, err)
	}
	if limit > 0 && int64(len(buf)) > limit {
		return nil, ErrBodyTooLarge
	}
	return buf, nil
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

package auth

import (
	"errors"
	"net/http"

	"github.com/vyrodovalexey/edgegw/internal/headers"
	"github.com/vyrodovalexey/edgegw/internal/observability"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
	"github.com/vyrodovalexey/edgegw/internal/util"
)

const (
	stageName = "authentication"

	errUnauthorized = `{"error":"unauthorized"}`
)

// Stage is the authentication pipeline stage.
type Stage struct {
	authenticator *Authenticator
	logger        observability.Logger
	metrics       *observability.Metrics
}

// NewStage creates the authentication stage.
func NewStage(authenticator *Authenticator, logger observability.Logger, metrics *observability.Metrics) *Stage {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Stage{authenticator: authenticator, logger: logger, metrics: metrics}
}

// Name implements pipeline.Stage.
func (s *Stage) Name() string { return stageName }

// Order implements pipeline.Stage.
func (s *Stage) Order() int { return pipeline.OrderAuthentication }

// Handle authenticates the request. On success the principal is stored in
// the request context and its user id is forwarded in X-User-Id; on failure
// the chain ends with 401.
func (s *Stage) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if pipeline.IsPreflight(r) {
		next.ServeHTTP(w, r)
		return
	}

	r = r.Clone(r.Context())
	r.Header.Del(headers.UserID)

	principal, err := s.authenticator.Authenticate(r)
	if err != nil {
		s.reject(w, r, err)
		return
	}

	if principal.UserID != "" {
		r.Header.Set(headers.UserID, principal.UserID)
	}
	next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
}

func (s *Stage) reject(w http.ResponseWriter, r *http.Request, err error) {
	reason := "invalid_credential"
	var authErr *Error
	if errors.As(err, &authErr) {
		reason = authErr.Reason()
	}

	s.logger.WithContext(r.Context()).Debug("authentication failed",
		observability.String("path", r.URL.Path),
		observability.String("reason", reason),
		observability.Error(err),
	)
	s.metrics.RecordRejection(stageName, reason)

	w.Header().Set(headers.WWWAuthenticate, "Bearer")
	util.WriteJSONError(w, http.StatusUnauthorized, errUnauthorized)
}

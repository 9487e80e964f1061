package pipeline

import "net/http"

// Stage orders. Lower values run earlier and wrap everything after them.
const (
	// OrderTraceContext is outermost so every later log line, including the
	// observability stage's own, carries the trace id.
	OrderTraceContext = -100

	// OrderObservability encloses CORS, authentication, fingerprinting and
	// routing, so preflights and rejections are logged too.
	OrderObservability = -90

	// OrderCORS runs before any stage that can reject, so policy headers are
	// present on every response.
	OrderCORS = -80

	// OrderAuthentication and OrderIdempotency share a tier. Authentication
	// must be registered first: the fingerprint includes the resolved user.
	OrderAuthentication = -1
	OrderIdempotency    = -1

	// OrderRateLimit runs once the principal is known.
	OrderRateLimit = 10
)

// Stage is one step of the edge pipeline. Handle either calls next (possibly
// with a derived request) or writes a response itself and returns, which
// terminates the chain.
type Stage interface {
	Name() string
	Order() int
	Handle(w http.ResponseWriter, r *http.Request, next http.Handler)
}

// StageFunc adapts a function into a Stage.
func StageFunc(name string, order int, fn func(w http.ResponseWriter, r *http.Request, next http.Handler)) Stage {
	return &funcStage{name: name, order: order, fn: fn}
}

type funcStage struct {
	name  string
	order int
	fn    func(w http.ResponseWriter, r *http.Request, next http.Handler)
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Order() int { return s.order }

func (s *funcStage) Handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	s.fn(w, r, next)
}

// IsPreflight reports whether r is a CORS preflight. Every OPTIONS request
// is treated as one.
func IsPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions
}

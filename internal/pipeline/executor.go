package pipeline

import (
	"net/http"
	"sort"
)

// Executor runs a fixed, ordered list of stages in front of a dispatcher.
// It is immutable after New and safe for concurrent use.
type Executor struct {
	stages  []Stage
	handler http.Handler
}

// New creates an executor. Stages are sorted by Order; stages with the same
// order keep their registration order. The dispatcher always runs last and
// only when no stage short-circuits.
func New(dispatcher http.Handler, stages ...Stage) *Executor {
	if dispatcher == nil {
		dispatcher = http.NotFoundHandler()
	}

	sorted := make([]Stage, 0, len(stages))
	for _, s := range stages {
		if s != nil {
			sorted = append(sorted, s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})

	// Build innermost first so sorted[0] ends up outermost.
	h := dispatcher
	for i := len(sorted) - 1; i >= 0; i-- {
		h = bind(sorted[i], h)
	}

	return &Executor{stages: sorted, handler: h}
}

// bind closes a stage over its successor.
func bind(s Stage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Handle(w, r, next)
	})
}

// ServeHTTP runs the request through every stage and the dispatcher.
func (e *Executor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}

// Stages returns the stage names in execution order.
func (e *Executor) Stages() []string {
	names := make([]string, len(e.stages))
	for i, s := range e.stages {
		names[i] = s.Name()
	}
	return names
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/edgegw/internal/auth/jwt"
	"github.com/vyrodovalexey/edgegw/internal/pipeline"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	token  string
	claims jwt.Claims
	err    error
}

func (v *stubVerifier) Verify(_ context.Context, token string) (jwt.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	if token != v.token {
		return nil, jwt.ErrTokenInvalid
	}
	return v.claims, nil
}

type captured struct {
	called  bool
	request *http.Request
}

func serve(stage pipeline.Stage, req *http.Request) (*httptest.ResponseRecorder, *captured) {
	c := &captured{}
	w := httptest.NewRecorder()
	pipeline.New(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.request = r
		w.WriteHeader(http.StatusOK)
	}), stage).ServeHTTP(w, req)
	return w, c
}

func counterValue(t *testing.T, reg prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

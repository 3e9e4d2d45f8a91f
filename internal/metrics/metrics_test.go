package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func routeLabels(t *testing.T, reg *prometheus.Registry, name string) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var routes []string
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" {
					routes = append(routes, lp.GetValue())
				}
			}
		}
	}
	return routes
}

func TestHTTPMetrics_RouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(HTTPMetricsMiddleware(reg))
	r.GET("/defects/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/defects/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"/defects/:id", "unknown"}, routeLabels(t, reg, "defects_http_requests_total"))
}

func TestHTTPMetrics_NilRegistry(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetricsMiddleware(nil))
	r.GET("/safe", func(c *gin.Context) { c.String(http.StatusOK, "safe") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/safe", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBackendMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBackendMetrics(reg)

	m.ObserveBackendCall("defects.get", "ok", 10*time.Millisecond)
	m.ObserveBackendCall("defects.get", "ok", 20*time.Millisecond)
	m.ObserveBackendCall("defects.get", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("defects.get", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("defects.get", "not_found")))

	var nilMetrics *BackendMetrics
	assert.Nil(t, NewBackendMetrics(nil))
	assert.NotPanics(t, func() { nilMetrics.ObserveBackendCall("x", "ok", 0) })
}

func TestWorkflowMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.Observe("repair", OutcomeOK)
	m.Observe("repair", OutcomeRejected)
	m.Observe("submit", OutcomePartial)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("repair", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("submit", OutcomePartial)))

	var nilMetrics *WorkflowMetrics
	assert.NotPanics(t, func() { nilMetrics.Observe("repair", OutcomeOK) })
}

func TestHandlerExposesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewWorkflowMetrics(reg).Observe("submit", OutcomeOK)

	r := gin.New()
	r.GET("/metrics", Handler(reg))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `defects_workflow_runs_total{outcome="ok",workflow="submit"} 1`))
	assert.Contains(t, body, "go_goroutines")
}

package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"site-defects/internal/backend"
	"site-defects/internal/backend/backendtest"
	"site-defects/internal/metrics"
	"site-defects/internal/models"
	"site-defects/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type auditEntry struct {
	UserID   int
	Entity   string
	EntityID int
	Action   string
	Details  string
}

type memoryAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *memoryAudit) Record(_ context.Context, userID int, entity string, entityID int, action, details string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{userID, entity, entityID, action, details})
}

func (a *memoryAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc   *Service
	srv   *backendtest.Server
	api   *backend.Client
	mr    *miniredis.Miniredis
	audit *memoryAudit
	reg   *prometheus.Registry
}

var today = time.Date(2024, time.May, 20, 10, 0, 0, 0, time.Local)

func setup(t *testing.T) *fixture {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	api := backend.New(backend.Options{BaseURL: srv.URL, Timeout: 2 * time.Second})

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rc.Close() })

	reg := prometheus.NewRegistry()
	audit := &memoryAudit{}
	svc := NewService(Options{
		Backend: api,
		Ledger:  store.NewLedger(rc, time.Hour),
		Audit:   audit,
		Metrics: metrics.NewWorkflowMetrics(reg),
		Now:     func() time.Time { return today },
	})
	return &fixture{svc: svc, srv: srv, api: api, mr: mr, audit: audit, reg: reg}
}

func (f *fixture) runs(t *testing.T, workflow, outcome string) float64 {
	t.Helper()
	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "defects_workflow_runs_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["workflow"] == workflow && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func draft(desc string) models.DefectDraft {
	return models.DefectDraft{ProjectID: 1, SubmittedBy: 7, Description: desc}
}

func jpeg(tag string) models.PhotoUpload {
	return models.PhotoUpload{FileName: tag + ".jpg", ContentType: "image/jpeg", Data: []byte("jpeg-" + tag)}
}

func intPtr(v int) *int { return &v }

package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"site-defects/internal/backend/backendtest"
	"site-defects/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveBackendCall(endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, endpoint+"="+outcome)
}

func newTestClient(t *testing.T, retries int) (*Client, *backendtest.Server, *recordingObserver) {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	c := New(Options{BaseURL: srv.URL + "/", Timeout: 2 * time.Second, RetryCount: retries, Observer: obs})
	return c, srv, obs
}

func TestNewClampsRetries(t *testing.T) {
	c := New(Options{BaseURL: "http://backend.local/", RetryCount: 5})
	assert.Equal(t, maxRetries, c.api.RetryCount)
	assert.Equal(t, 0, c.create.RetryCount)
	assert.Equal(t, 0, c.upload.RetryCount)
	assert.Equal(t, "http://backend.local", c.BaseURL())

	c = New(Options{RetryCount: -3})
	assert.Equal(t, 0, c.api.RetryCount)
}

func TestAssetURL(t *testing.T) {
	c := New(Options{BaseURL: "http://backend.local"})
	assert.Equal(t, "http://backend.local/uploads/a.png", c.AssetURL("uploads/a.png"))
	assert.Equal(t, "http://backend.local/uploads/a.png", c.AssetURL("/uploads/a.png"))
	assert.Equal(t, "https://cdn.example/a.png", c.AssetURL("https://cdn.example/a.png"))
	assert.Equal(t, "", c.AssetURL(""))
}

func TestCallRetriesGatewayFailureOnce(t *testing.T) {
	c, srv, obs := newTestClient(t, 1)
	d := srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 2, Description: "crack"})
	srv.FailNext("GET /defects/:id", http.StatusServiceUnavailable)

	got, err := c.GetDefect(context.Background(), d.ID, DefectQuery{})
	require.NoError(t, err)
	assert.Equal(t, "crack", got.Description)
	assert.Equal(t, 2, srv.Hits("GET /defects/:id"))
	assert.Equal(t, []string{"defects.get=ok"}, obs.calls)
}

func TestCreateIsNotRetriedAfterCommit(t *testing.T) {
	var mu sync.Mutex
	posts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posts++
		n := posts
		mu.Unlock()
		// the record is stored on every call; the first answer is lost at the gateway
		if n == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"improvement_id":9,"defect_id":1}`))
	}))
	defer ts.Close()

	c := New(Options{BaseURL: ts.URL, Timeout: 2 * time.Second, RetryCount: 1})
	_, err := c.CreateImprovementByCode(context.Background(), "abc", "patched", models.DateOf(time.Now()))
	require.ErrorIs(t, err, models.ErrNetwork)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, posts)
}

func TestCallGivesUpAfterOneRetry(t *testing.T) {
	c, srv, obs := newTestClient(t, 1)
	srv.FailNext("GET /defects/:id", http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway)

	_, err := c.GetDefect(context.Background(), 7, DefectQuery{})
	require.ErrorIs(t, err, models.ErrNetwork)
	assert.Equal(t, 2, srv.Hits("GET /defects/:id"))
	assert.Equal(t, []string{"defects.get=network_error"}, obs.calls)
}

func TestCallDoesNotRetryClientErrors(t *testing.T) {
	c, srv, _ := newTestClient(t, 1)

	_, err := c.GetDefect(context.Background(), 99, DefectQuery{})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, srv.Hits("GET /defects/:id"))

	srv.FailNext("POST /defects/", http.StatusUnprocessableEntity)
	_, err = c.CreateDefect(context.Background(), models.DefectDraft{ProjectID: 1, SubmittedBy: 1, Description: "x"})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "injected failure")
	assert.Equal(t, 1, srv.Hits("POST /defects/"))

	srv.FailNext("PUT /defects/:id", http.StatusConflict)
	_, err = c.SetDefectStatus(context.Background(), 1, models.StatusCompleted)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCallUnreachableBackend(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	obs := &recordingObserver{}
	c := New(Options{BaseURL: url, Timeout: time.Second, Observer: obs})
	_, err := c.ListProjects(context.Background(), 0, 100)
	require.ErrorIs(t, err, models.ErrNetwork)
	assert.Equal(t, []string{"projects.list=network_error"}, obs.calls)
}

func TestClassifyUnexpectedStatus(t *testing.T) {
	c, srv, obs := newTestClient(t, 0)
	srv.FailNext("GET /projects/:id", http.StatusTeapot)

	_, err := c.GetProject(context.Background(), 1)
	require.Error(t, err)
	for _, kind := range []error{models.ErrNetwork, models.ErrNotFound, models.ErrValidation, models.ErrInvalidState} {
		assert.NotErrorIs(t, err, kind)
	}
	assert.Contains(t, err.Error(), "418")
	assert.Equal(t, []string{"projects.get=error"}, obs.calls)
}

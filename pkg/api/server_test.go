package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/evoctl/evo/pkg/database"
	"github.com/evoctl/evo/pkg/evolvable/budget"
	"github.com/evoctl/evo/pkg/evolvable/router"
	"github.com/evoctl/evo/pkg/events"
	"github.com/evoctl/evo/pkg/evolver"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	generations []database.Generation
	err         error
}

func (f *fakeHistory) ListGenerations(_ context.Context, limit int) ([]database.Generation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.generations) {
		return f.generations[:limit], nil
	}
	return f.generations, nil
}

// fakeOrchestrator stands in for *evolver.Evolver so these tests never
// spawn a real cycle against an LLM endpoint or a database.
type fakeOrchestrator struct {
	mu      sync.Mutex
	running bool
	runs    int
}

func (f *fakeOrchestrator) Status() evolver.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return evolver.Status{Running: f.running}
}

func (f *fakeOrchestrator) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *fakeOrchestrator) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
}

func (f *fakeOrchestrator) RunOnce(_ context.Context) evolver.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return evolver.Result{Generation: int64(f.runs), Status: database.StatusAccepted}
}

func newTestServer(t *testing.T) (*Server, *budget.Budget, *router.Router) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bud := budget.New(1000)
	rt := router.New("cheap", "capable", 3)
	ev := &fakeOrchestrator{}

	hist := &fakeHistory{generations: []database.Generation{
		{GenerationNumber: 2, TargetName: "greeter", Status: database.StatusAccepted},
		{GenerationNumber: 1, TargetName: "greeter", Status: database.StatusAcceptedNeutral},
	}}

	return NewServer(ev, bud, rt, hist, events.NewBroker()), bud, rt
}

func TestGetStatusReturnsEvolverSnapshot(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := gin.New()
	srv.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPauseAndResumeToggleRunningState(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := gin.New()
	srv.Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/resume", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, srv.ev.Status().Running)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pause", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, srv.ev.Status().Running)
}

func TestRunOnceIsRateLimited(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := gin.New()
	srv.Register(r)

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodPost, "/run-once", nil))
	assert.Equal(t, http.StatusAccepted, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/run-once", nil))
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestGetBudgetReturnsStatus(t *testing.T) {
	srv, bud, _ := newTestServer(t)
	bud.Record(10, 5)

	r := gin.New()
	srv.Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/budget", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tokens_used_today")
}

func TestGetRouterReturnsStatus(t *testing.T) {
	srv, _, rt := newTestServer(t)
	rt.ReportFailure()

	r := gin.New()
	srv.Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/router", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetHistoryReturnsGenerationsNewestFirst(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := gin.New()
	srv.Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history?limit=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"generation_number":2`)
}

func TestGetHistoryPropagatesReaderError(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.history = &fakeHistory{err: assertErr("boom")}

	r := gin.New()
	srv.Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), "boom")
}

func TestGetEventsReturnsEmptyListWhenNothingNewBeforeClientGivesUp(t *testing.T) {
	srv, _, _ := newTestServer(t)
	r := gin.New()
	srv.Register(r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events?since=999", nil).WithContext(ctx)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestGetEventsReturnsNewlyPublishedEvent(t *testing.T) {
	srv, _, _ := newTestServer(t)
	srv.broker.Publish(events.Event{TargetName: "greeter", Status: database.StatusAccepted})

	r := gin.New()
	srv.Register(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"target_name":"greeter"`)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

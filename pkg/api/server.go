// Package api exposes the dashboard control surface over HTTP: status,
// pause/resume/run-once for the Evolver, and read-only snapshots of
// Budget, Router and generation history. The dashboard itself is out of
// scope — this package only pins the contract it consumes, the way the
// teacher's pkg/api wraps its session manager behind gin.Context
// handlers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/evoctl/evo/pkg/database"
	"github.com/evoctl/evo/pkg/evolvable/budget"
	"github.com/evoctl/evo/pkg/evolvable/router"
	"github.com/evoctl/evo/pkg/events"
	"github.com/evoctl/evo/pkg/evolver"
	"github.com/gin-gonic/gin"
)

// longPollTimeout bounds how long GET /events holds a connection open
// waiting for a new event before returning an empty result.
const longPollTimeout = 25 * time.Second

// runOnceCooldown is the minimum interval between accepted run-once
// triggers, matching spec.md §5's "rate-limited run-once (minimum 30s
// between triggers)".
const runOnceCooldown = 30 * time.Second

// HistoryReader lists recent Generation Records. Implemented by
// *database.Client; narrowed so tests can substitute a fake.
type HistoryReader interface {
	ListGenerations(ctx context.Context, limit int) ([]database.Generation, error)
}

// Orchestrator is the Evolver surface the dashboard control plane
// drives. Implemented by *evolver.Evolver; narrowed to an interface so
// tests can substitute a fake that never touches disk, an LLM endpoint,
// or a database.
type Orchestrator interface {
	Status() evolver.Status
	Pause()
	Resume()
	RunOnce(ctx context.Context) evolver.Result
}

// Server wraps the Evolver and its collaborators behind HTTP handlers.
type Server struct {
	ev      Orchestrator
	bud     *budget.Budget
	rt      *router.Router
	history HistoryReader
	broker  *events.Broker

	mu          sync.Mutex
	lastRunOnce time.Time
	haveRunOnce bool
}

// NewServer returns a Server wired to its collaborators. broker may be
// nil, in which case GET /events always returns an empty result
// immediately.
func NewServer(ev Orchestrator, bud *budget.Budget, rt *router.Router, history HistoryReader, broker *events.Broker) *Server {
	return &Server{ev: ev, bud: bud, rt: rt, history: history, broker: broker}
}

// Register attaches the control-surface routes to r.
func (s *Server) Register(r *gin.Engine) {
	r.GET("/status", s.getStatus)
	r.POST("/pause", s.postPause)
	r.POST("/resume", s.postResume)
	r.POST("/run-once", s.postRunOnce)
	r.GET("/budget", s.getBudget)
	r.GET("/router", s.getRouter)
	r.GET("/history", s.getHistory)
	r.GET("/events", s.getEvents)
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.ev.Status())
}

func (s *Server) postPause(c *gin.Context) {
	s.ev.Pause()
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

func (s *Server) postResume(c *gin.Context) {
	s.ev.Resume()
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

// postRunOnce triggers exactly one cycle in the background and returns
// immediately; a cycle can take up to cycleDeadline (5m), far longer
// than any HTTP client should be expected to hold a connection open
// for. The rate limit guards against a dashboard user mashing the
// button into an unbounded queue of cycles.
func (s *Server) postRunOnce(c *gin.Context) {
	s.mu.Lock()
	if s.haveRunOnce && time.Since(s.lastRunOnce) < runOnceCooldown {
		retryAfter := runOnceCooldown - time.Since(s.lastRunOnce)
		s.mu.Unlock()
		c.Header("Retry-After", retryAfter.Truncate(time.Second).String())
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "run_once rate limited", "retry_after": retryAfter.String()})
		return
	}
	s.lastRunOnce = time.Now()
	s.haveRunOnce = true
	s.mu.Unlock()

	go s.ev.RunOnce(context.Background())

	c.JSON(http.StatusAccepted, gin.H{"status": "triggered"})
}

func (s *Server) getBudget(c *gin.Context) {
	c.JSON(http.StatusOK, s.bud.Status())
}

func (s *Server) getRouter(c *gin.Context) {
	c.JSON(http.StatusOK, s.rt.Status())
}

func (s *Server) getHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	generations, err := s.history.ListGenerations(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, generations)
}

// getEvents long-polls for generation lifecycle events newer than
// ?since= (default 0), returning as soon as one is published or after
// longPollTimeout with an empty list. Dashboard clients poll this in a
// loop, passing back the highest Seq they've seen.
func (s *Server) getEvents(c *gin.Context) {
	since := int64(0)
	if raw := c.Query("since"); raw != "" {
		if n, err := parsePositiveInt(raw); err == nil {
			since = int64(n)
		}
	}

	if s.broker == nil {
		c.JSON(http.StatusOK, []events.Event{})
		return
	}

	evts := s.broker.Wait(c.Request.Context(), since, longPollTimeout)
	if evts == nil {
		evts = []events.Event{}
	}
	c.JSON(http.StatusOK, evts)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

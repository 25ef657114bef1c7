// Package orchestrator sequences the application-level flows against the
// route-planning service: startup bootstrap, route and batch submission, and
// the refresh fan-out that keeps derived views consistent after a mutation.
//
// All shared state converges to the same server truth, so overlapping
// sequences are resolved last-writer-wins rather than mutually excluded.
// Failed best-effort refreshes leave the previous value in place.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"

	"evalgo.org/pathium/internal/gateway"
	"evalgo.org/pathium/models"
)

// ErrBootstrapRefused is recorded when an empty graph cannot be seeded
// without an authenticated identity. This is a deliberate refusal, not a
// retry condition; logging in lifts it automatically.
var ErrBootstrapRefused = errors.New("graph is empty, authentication required to seed it")

// seedEdges is the fixed edge set inserted into an empty graph at bootstrap.
var seedEdges = []models.EdgeCreate{
	{FromNode: 0, ToNode: 1, Weight: 5.0},
	{FromNode: 1, ToNode: 2, Weight: 3.0},
	{FromNode: 2, ToNode: 3, Weight: 2.0},
}

// SeedEdges returns the bootstrap seed set.
func SeedEdges() []models.EdgeCreate {
	return append([]models.EdgeCreate{}, seedEdges...)
}

// Sessions is the session-store surface the orchestrator reacts to.
// *session.Store satisfies it.
type Sessions interface {
	Identity() *models.User
	Subscribe(fn func(*models.User))
}

// Orchestrator owns the fetched application state and coordinates the
// multi-step sequences that rebuild it.
type Orchestrator struct {
	gw       *gateway.Gateway
	sessions Sessions

	// requireAuthSeed refuses to seed an empty graph anonymously.
	requireAuthSeed bool

	mu            sync.Mutex
	bootstrapping bool
	lastIdentity  *models.User

	graphInfo *models.GraphInfo
	route     *models.RouteResponse
	batch     []models.RouteBatchItem
	stats     *models.PerformanceStats
	history   []models.HistoryItem
	initErr   error
}

// New creates an orchestrator and subscribes it to identity transitions:
// whenever the session gains an identity, bootstrap re-runs so a deferred
// empty-graph seeding can proceed.
func New(gw *gateway.Gateway, sessions Sessions, requireAuthSeed bool) *Orchestrator {
	o := &Orchestrator{
		gw:              gw,
		sessions:        sessions,
		requireAuthSeed: requireAuthSeed,
	}

	sessions.Subscribe(func(user *models.User) {
		o.mu.Lock()
		gained := o.lastIdentity == nil && user != nil
		o.lastIdentity = user
		o.mu.Unlock()

		if gained {
			if err := o.Bootstrap(context.Background()); err != nil {
				log.Printf("re-bootstrap after login failed: %v", err)
			}
		}
	})

	return o
}

// Bootstrap fetches the graph snapshot, seeds an empty graph when policy
// allows, and fans out the stats/history refresh. At most one bootstrap is in
// flight at a time; a concurrent call returns immediately.
func (o *Orchestrator) Bootstrap(ctx context.Context) error {
	o.mu.Lock()
	if o.bootstrapping {
		o.mu.Unlock()
		return nil
	}
	o.bootstrapping = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.bootstrapping = false
		o.mu.Unlock()
	}()

	info, err := o.gw.GraphInfo(ctx)
	if err != nil {
		o.setInitError(err)
		return err
	}

	if info.EdgeCount == 0 {
		if o.requireAuthSeed && o.sessions.Identity() == nil {
			// Refuse and wait for a login; the identity subscription
			// re-runs bootstrap once one arrives.
			o.setInitError(ErrBootstrapRefused)
			return nil
		}

		seeded, err := o.gw.AddEdges(ctx, seedEdges)
		if err != nil {
			o.setInitError(err)
			return err
		}
		info = seeded
	}

	o.mu.Lock()
	o.graphInfo = info
	o.initErr = nil
	o.mu.Unlock()

	o.refreshAggregates(ctx)
	return nil
}

// SubmitRoute validates and runs a single route query, replaces the current
// result, then refreshes the graph snapshot and the derived aggregates in
// that order. A failed query leaves the previous result untouched.
func (o *Orchestrator) SubmitRoute(ctx context.Context, req *models.RouteRequest) (*models.RouteResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	resp, err := o.gw.ComputeRoute(ctx, req)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.route = resp
	o.mu.Unlock()

	o.refreshGraphInfo(ctx)
	o.refreshAggregates(ctx)
	return resp, nil
}

// SubmitBatch validates and runs an ordered batch of route queries. The
// result list is order-preserving, one item per query, and replaces the
// previous batch wholesale.
func (o *Orchestrator) SubmitBatch(ctx context.Context, queries []models.RouteRequest) ([]models.RouteBatchItem, error) {
	for i := range queries {
		if err := models.Validate(&queries[i]); err != nil {
			return nil, err
		}
	}

	items, err := o.gw.ComputeBatch(ctx, queries)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.batch = items
	o.mu.Unlock()

	o.refreshGraphInfo(ctx)
	o.refreshAggregates(ctx)
	return items, nil
}

// SubmitAsyncBatch validates and enqueues an asynchronous batch job.
func (o *Orchestrator) SubmitAsyncBatch(ctx context.Context, queries []models.RouteRequest) (*models.AsyncJobStatus, error) {
	for i := range queries {
		if err := models.Validate(&queries[i]); err != nil {
			return nil, err
		}
	}
	return o.gw.SubmitAsyncBatch(ctx, queries)
}

// WaitJob polls an asynchronous job until it reaches a terminal state or the
// context is cancelled. A finished job adopts its result as the current batch
// and triggers the post-mutation refresh sequence.
func (o *Orchestrator) WaitJob(ctx context.Context, id string, poll PollFunc) (*models.AsyncJobStatus, error) {
	for {
		status, err := o.gw.AsyncJob(ctx, id)
		if err != nil {
			return nil, err
		}

		if status.Terminal() {
			if status.Status == models.JobFinished && status.Result != nil {
				o.mu.Lock()
				o.batch = status.Result
				o.mu.Unlock()
				o.refreshGraphInfo(ctx)
				o.refreshAggregates(ctx)
			}
			return status, nil
		}

		if err := poll(ctx, status); err != nil {
			return status, err
		}
	}
}

// PollFunc pauses between job polls. It receives the latest status and may
// abort the wait by returning an error (typically ctx.Err()).
type PollFunc func(ctx context.Context, status *models.AsyncJobStatus) error

// refreshGraphInfo re-fetches the graph snapshot. Best effort: a failure is
// logged and the previous snapshot stays.
func (o *Orchestrator) refreshGraphInfo(ctx context.Context) {
	info, err := o.gw.GraphInfo(ctx)
	if err != nil {
		log.Printf("graph info refresh failed: %v", err)
		return
	}
	o.mu.Lock()
	o.graphInfo = info
	o.mu.Unlock()
}

// refreshAggregates fetches performance stats and history in parallel. Both
// fetches settle independently; either failure is logged and leaves the
// corresponding state at its previous, stale-but-valid value.
func (o *Orchestrator) refreshAggregates(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		stats, err := o.gw.PerformanceStats(ctx)
		if err != nil {
			log.Printf("stats refresh failed: %v", err)
			return
		}
		o.mu.Lock()
		o.stats = stats
		o.mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		history, err := o.gw.History(ctx, gateway.HistoryFilter{})
		if err != nil {
			log.Printf("history refresh failed: %v", err)
			return
		}
		o.mu.Lock()
		o.history = history
		o.mu.Unlock()
	}()

	wg.Wait()
}

func (o *Orchestrator) setInitError(err error) {
	o.mu.Lock()
	o.initErr = err
	o.mu.Unlock()
}

// GraphInfo returns the last adopted graph snapshot, or nil before a
// successful bootstrap.
func (o *Orchestrator) GraphInfo() *models.GraphInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.graphInfo
}

// CurrentRoute returns the most recent single-route result.
func (o *Orchestrator) CurrentRoute() *models.RouteResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.route
}

// BatchResults returns the most recent batch result list.
func (o *Orchestrator) BatchResults() []models.RouteBatchItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.batch
}

// Stats returns the last fetched performance aggregates.
func (o *Orchestrator) Stats() *models.PerformanceStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// History returns the last fetched query history.
func (o *Orchestrator) History() []models.HistoryItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history
}

// InitError returns the recorded bootstrap error, if any.
func (o *Orchestrator) InitError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.initErr
}

package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"evalgo.org/pathium/models"
)

// job is the internal mutable state behind one AsyncJobStatus.
type job struct {
	id         string
	queries    []models.RouteRequest
	status     string
	createdAt  time.Time
	startedAt  *time.Time
	finishedAt *time.Time
	errMsg     *string
	result     []models.RouteBatchItem
	completed  int
}

// JobManager runs asynchronous batch jobs on a fixed worker pool and keeps
// their statuses for polling. Status transitions are monotonic:
// queued -> running -> finished | failed.
type JobManager struct {
	mu             sync.Mutex
	graph          *Graph
	recorder       *Recorder
	jobs           map[string]*job
	queue          chan string
	wg             sync.WaitGroup
	completedTimes []float64
}

// NewJobManager starts workers goroutines consuming the job queue.
func NewJobManager(graph *Graph, recorder *Recorder, workers int) *JobManager {
	if workers < 1 {
		workers = 1
	}

	m := &JobManager{
		graph:    graph,
		recorder: recorder,
		jobs:     make(map[string]*job),
		queue:    make(chan string, 256),
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}

	return m
}

// Stop drains the queue and waits for running jobs to settle.
func (m *JobManager) Stop() {
	close(m.queue)
	m.wg.Wait()
}

// Submit enqueues a batch job and returns its initial status.
func (m *JobManager) Submit(queries []models.RouteRequest) models.AsyncJobStatus {
	j := &job{
		id:        uuid.New().String(),
		queries:   queries,
		status:    models.JobQueued,
		createdAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs[j.id] = j
	status := m.statusLocked(j)
	m.mu.Unlock()

	m.queue <- j.id
	return status
}

// Job returns the status of one job, or false when the id is unknown.
func (m *JobManager) Job(id string) (models.AsyncJobStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return models.AsyncJobStatus{}, false
	}
	return m.statusLocked(j), true
}

// Metrics aggregates the queue state.
func (m *JobManager) Metrics() models.AsyncJobsMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var metrics models.AsyncJobsMetrics
	for _, j := range m.jobs {
		switch j.status {
		case models.JobQueued:
			metrics.QueueLength++
		case models.JobRunning:
			metrics.RunningJobs++
		case models.JobFinished:
			metrics.FinishedJobs++
		case models.JobFailed:
			metrics.FailedJobs++
		}
	}

	if len(m.completedTimes) > 0 {
		var sum float64
		for _, t := range m.completedTimes {
			sum += t
		}
		avg := sum / float64(len(m.completedTimes))
		metrics.AvgJobTimeMS = &avg
	}

	return metrics
}

func (m *JobManager) worker() {
	defer m.wg.Done()
	for id := range m.queue {
		m.run(id)
	}
}

func (m *JobManager) run(id string) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	j.status = models.JobRunning
	j.startedAt = &now
	queries := j.queries
	m.mu.Unlock()

	group := uuid.New().String()
	items, err := computeBatch(m.graph, m.recorder, queries, group)

	finished := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()

	j.finishedAt = &finished
	if err != nil {
		msg := err.Error()
		j.status = models.JobFailed
		j.errMsg = &msg
		return
	}

	j.status = models.JobFinished
	j.result = items
	j.completed = len(items)
	if j.startedAt != nil {
		m.completedTimes = append(m.completedTimes, float64(finished.Sub(*j.startedAt).Microseconds())/1000.0)
	}
}

// statusLocked snapshots a job into its wire form. Callers hold m.mu.
func (m *JobManager) statusLocked(j *job) models.AsyncJobStatus {
	status := models.AsyncJobStatus{
		ID:               j.id,
		Status:           j.status,
		CreatedAt:        j.createdAt,
		StartedAt:        j.startedAt,
		FinishedAt:       j.finishedAt,
		TotalQueries:     len(j.queries),
		CompletedQueries: j.completed,
		ErrorMessage:     j.errMsg,
	}

	if j.startedAt != nil && j.finishedAt != nil {
		ms := float64(j.finishedAt.Sub(*j.startedAt).Microseconds()) / 1000.0
		status.ExecutionTimeMS = &ms
	}
	if j.status == models.JobFinished {
		status.Result = append([]models.RouteBatchItem{}, j.result...)
	}

	return status
}

// computeBatch resolves a batch over the base graph. Scenario and profile
// options are rejected for batches, matching the synchronous batch endpoint.
func computeBatch(graph *Graph, recorder *Recorder, queries []models.RouteRequest, group string) ([]models.RouteBatchItem, error) {
	for _, q := range queries {
		if q.ScenarioID != nil {
			return nil, fmt.Errorf("scenario_id is not supported in batch queries")
		}
		if q.Profile != nil {
			return nil, fmt.Errorf("profile is not supported in batch queries")
		}
	}

	start := time.Now()
	results := graph.ShortestPathsBatch(queries)
	totalMS := float64(time.Since(start).Microseconds()) / 1000.0

	items := make([]models.RouteBatchItem, len(queries))
	for i, res := range results {
		resp := models.RouteResponse{
			TotalWeight:     res.distance,
			Nodes:           res.path,
			Segments:        res.segments,
			Algorithm:       "dijkstra_parallel_batch",
			ExecutionTimeMS: totalMS,
		}
		if res.err != nil {
			resp.Nodes = []int{}
			resp.Segments = []models.RouteSegment{}
		}
		items[i] = models.RouteBatchItem{Request: queries[i], Response: resp}

		if recorder != nil {
			recorder.Record(queries[i], &resp, res.err, true, &group)
		}
	}

	return items, nil
}

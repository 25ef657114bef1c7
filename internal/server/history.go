package server

import (
	"sync"
	"time"

	"evalgo.org/pathium/models"
)

// Recorder keeps the query history and derives performance aggregates from
// it on demand. Aggregates are always recomputed from the recorded entries,
// never patched incrementally.
type Recorder struct {
	mu     sync.Mutex
	items  []models.HistoryItem
	nextID int
	limit  int
}

// NewRecorder creates a recorder retaining at most limit entries.
func NewRecorder(limit int) *Recorder {
	if limit < 1 {
		limit = 1000
	}
	return &Recorder{nextID: 1, limit: limit}
}

// Record appends one query outcome.
func (r *Recorder) Record(req models.RouteRequest, resp *models.RouteResponse, err error, isBatch bool, batchGroup *string) {
	item := models.HistoryItem{
		CreatedAt:  time.Now().UTC(),
		Source:     req.Source,
		Target:     req.Target,
		Criteria:   req.Criteria,
		Profile:    req.Profile,
		IsBatch:    isBatch,
		BatchGroup: batchGroup,
		ScenarioID: req.ScenarioID,
	}

	if resp != nil {
		item.Algorithm = resp.Algorithm
	} else {
		item.Algorithm = req.Algorithm
	}

	if err != nil {
		msg := err.Error()
		item.Success = false
		item.ErrorMessage = &msg
	} else if resp != nil {
		item.Success = true
		weight := resp.TotalWeight
		execMS := resp.ExecutionTimeMS
		item.TotalWeight = &weight
		item.ExecutionTimeMS = &execMS
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item.ID = r.nextID
	r.nextID++
	r.items = append(r.items, item)
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

// History returns recorded queries newest first, honoring the filters.
func (r *Recorder) History(limit int, algorithm string, onlyFailed bool) []models.HistoryItem {
	if limit <= 0 {
		limit = 50
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.HistoryItem, 0, limit)
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		item := r.items[i]
		if algorithm != "" && item.Algorithm != algorithm {
			continue
		}
		if onlyFailed && item.Success {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Stats recomputes the performance aggregates over the retained history.
func (r *Recorder) Stats() models.PerformanceStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := models.PerformanceStats{PerAlgorithm: []models.AlgorithmStats{}}

	type agg struct {
		count int
		sum   float64
		max   float64
		timed int
	}
	perAlgo := map[string]*agg{}
	var order []string

	var sum, max float64
	var timed int
	for _, item := range r.items {
		stats.TotalQueries++
		if item.Success {
			stats.SuccessfulQueries++
		} else {
			stats.FailedQueries++
		}

		a, ok := perAlgo[item.Algorithm]
		if !ok {
			a = &agg{}
			perAlgo[item.Algorithm] = a
			order = append(order, item.Algorithm)
		}
		a.count++

		if item.ExecutionTimeMS != nil {
			ms := *item.ExecutionTimeMS
			sum += ms
			timed++
			if ms > max {
				max = ms
			}
			a.sum += ms
			a.timed++
			if ms > a.max {
				a.max = ms
			}
		}
	}

	if timed > 0 {
		avg := sum / float64(timed)
		m := max
		stats.AvgExecutionMS = &avg
		stats.MaxExecutionMS = &m
	}

	for _, name := range order {
		a := perAlgo[name]
		entry := models.AlgorithmStats{Algorithm: name, QueryCount: a.count}
		if a.timed > 0 {
			avg := a.sum / float64(a.timed)
			m := a.max
			entry.AvgExecutionMS = &avg
			entry.MaxExecutionMS = &m
		}
		stats.PerAlgorithm = append(stats.PerAlgorithm, entry)
	}

	return stats
}

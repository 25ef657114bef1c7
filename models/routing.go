// Package models defines the wire types exchanged with the route-planning
// service. Field names and optionality mirror the server contract exactly:
// optional fields are pointers tagged omitempty, so an absent value is
// omitted from the payload rather than sent as null.
package models

import "time"

// Optimization criteria accepted by the routing service.
const (
	CriterionTime      = "time"
	CriterionDistance  = "distance"
	CriterionCost      = "cost"
	CriterionTransfers = "transfers"
)

// Routing algorithms accepted by the routing service.
const (
	AlgorithmDijkstra = "dijkstra"
	AlgorithmAStar    = "a_star"
)

// EdgeCreate describes a single directed edge to insert into the graph.
type EdgeCreate struct {
	FromNode int     `json:"from_node" validate:"min=0"`
	ToNode   int     `json:"to_node" validate:"min=0"`
	Weight   float64 `json:"weight" validate:"gt=0"`
}

// EdgeBulkCreateRequest adds many edges in one call.
type EdgeBulkCreateRequest struct {
	Edges []EdgeCreate `json:"edges" validate:"required,min=1,dive"`
}

// NodeCreate describes an explicit node (without edges).
type NodeCreate struct {
	ID int `json:"id" validate:"min=0"`
}

// NodeBulkCreateRequest adds many explicit nodes in one call.
type NodeBulkCreateRequest struct {
	Nodes []NodeCreate `json:"nodes" validate:"required,min=1,dive"`
}

// GraphInfo is a snapshot of the remote graph size. It is refreshed as a
// whole, never mutated locally.
type GraphInfo struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
}

// RouteRequest asks for a single shortest path.
type RouteRequest struct {
	Source     int      `json:"source" validate:"min=0"`
	Target     int      `json:"target" validate:"min=0"`
	Criteria   []string `json:"criteria" validate:"required,min=1,dive,oneof=time distance cost transfers"`
	Profile    *string  `json:"profile,omitempty"`
	Algorithm  string   `json:"algorithm,omitempty" validate:"omitempty,oneof=dijkstra a_star"`
	ScenarioID *int     `json:"scenario_id,omitempty"`
}

// RouteSegment is one hop of a computed path.
type RouteSegment struct {
	FromNode int     `json:"from_node"`
	ToNode   int     `json:"to_node"`
	Weight   float64 `json:"weight"`
}

// RouteResponse is the result of a single route query. Nodes is the ordered
// path with the source first and the target last; an unreachable target
// yields an empty slice.
type RouteResponse struct {
	TotalWeight     float64        `json:"total_weight"`
	Nodes           []int          `json:"nodes"`
	Segments        []RouteSegment `json:"segments"`
	Algorithm       string         `json:"algorithm"`
	ExecutionTimeMS float64        `json:"execution_time_ms"`
}

// RouteBatchRequest runs many route queries in one call.
type RouteBatchRequest struct {
	Queries []RouteRequest `json:"queries" validate:"required,min=1,dive"`
}

// RouteBatchItem pairs one batch query with its result. The server preserves
// request order, one item per query.
type RouteBatchItem struct {
	Request  RouteRequest  `json:"request"`
	Response RouteResponse `json:"response"`
}

// Async batch job states. Transitions are monotonic:
// queued -> running -> finished | failed.
const (
	JobQueued   = "queued"
	JobRunning  = "running"
	JobFinished = "finished"
	JobFailed   = "failed"
)

// AsyncJobStatus describes an asynchronous batch job. Result is present only
// once Status is finished.
type AsyncJobStatus struct {
	ID               string           `json:"id"`
	Status           string           `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	StartedAt        *time.Time       `json:"started_at"`
	FinishedAt       *time.Time       `json:"finished_at"`
	TotalQueries     int              `json:"total_queries"`
	CompletedQueries int              `json:"completed_queries"`
	ErrorMessage     *string          `json:"error_message"`
	ExecutionTimeMS  *float64         `json:"execution_time_ms"`
	Result           []RouteBatchItem `json:"result,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (s *AsyncJobStatus) Terminal() bool {
	return s.Status == JobFinished || s.Status == JobFailed
}

// AsyncJobsMetrics aggregates the server-side job queue.
type AsyncJobsMetrics struct {
	QueueLength     int      `json:"queue_length"`
	RunningJobs     int      `json:"running_jobs"`
	FinishedJobs    int      `json:"finished_jobs"`
	FailedJobs      int      `json:"failed_jobs"`
	AvgJobTimeMS    *float64 `json:"avg_job_time_ms"`
	CPUUsagePercent *float64 `json:"cpu_usage_percent"`
	GPUUsagePercent *float64 `json:"gpu_usage_percent"`
}

// HistoryItem is one recorded route query. Aggregates are recomputed
// server-side; the client always re-fetches instead of deriving them.
type HistoryItem struct {
	ID              int       `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Source          int       `json:"source"`
	Target          int       `json:"target"`
	Algorithm       string    `json:"algorithm"`
	Criteria        []string  `json:"criteria"`
	Profile         *string   `json:"profile"`
	TotalWeight     *float64  `json:"total_weight"`
	ExecutionTimeMS *float64  `json:"execution_time_ms"`
	Success         bool      `json:"success"`
	ErrorMessage    *string   `json:"error_message"`
	IsBatch         bool      `json:"is_batch"`
	BatchGroup      *string   `json:"batch_group"`
	ScenarioID      *int      `json:"scenario_id"`
}

// AlgorithmStats aggregates execution times for one algorithm label.
type AlgorithmStats struct {
	Algorithm      string   `json:"algorithm"`
	QueryCount     int      `json:"query_count"`
	AvgExecutionMS *float64 `json:"avg_execution_ms"`
	MaxExecutionMS *float64 `json:"max_execution_ms"`
}

// PerformanceStats aggregates the full query history.
type PerformanceStats struct {
	TotalQueries      int              `json:"total_queries"`
	SuccessfulQueries int              `json:"successful_queries"`
	FailedQueries     int              `json:"failed_queries"`
	AvgExecutionMS    *float64         `json:"avg_execution_ms"`
	MaxExecutionMS    *float64         `json:"max_execution_ms"`
	PerAlgorithm      []AlgorithmStats `json:"per_algorithm"`
}

// ScenarioCreate creates a named what-if scenario.
type ScenarioCreate struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// Scenario is a modeling scenario summary.
type Scenario struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScenarioModification overrides one edge within a scenario.
type ScenarioModification struct {
	ID               int      `json:"id"`
	FromNode         int      `json:"from_node"`
	ToNode           int      `json:"to_node"`
	Disable          bool     `json:"disable"`
	WeightMultiplier float64  `json:"weight_multiplier"`
	NewWeight        *float64 `json:"new_weight,omitempty"`
}

// ScenarioDetail is a scenario together with its edge modifications.
type ScenarioDetail struct {
	Scenario
	Modifications []ScenarioModification `json:"modifications"`
}

// ProfileCreate creates a named optimization profile. The weights blend the
// criteria when a route request references the profile by name.
type ProfileCreate struct {
	Name            string  `json:"name" validate:"required"`
	Description     *string `json:"description,omitempty"`
	WeightTime      float64 `json:"weight_time"`
	WeightDistance  float64 `json:"weight_distance"`
	WeightCost      float64 `json:"weight_cost"`
	TransferPenalty float64 `json:"transfer_penalty"`
}

// Profile is a stored optimization profile.
type Profile struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	WeightTime      float64   `json:"weight_time"`
	WeightDistance  float64   `json:"weight_distance"`
	WeightCost      float64   `json:"weight_cost"`
	TransferPenalty float64   `json:"transfer_penalty"`
	CreatedAt       time.Time `json:"created_at"`
}

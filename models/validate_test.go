package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRouteRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     RouteRequest
		wantErr string
	}{
		{
			name: "valid minimal request",
			req:  RouteRequest{Source: 0, Target: 3, Criteria: []string{"time"}},
		},
		{
			name: "valid with algorithm and multiple criteria",
			req:  RouteRequest{Source: 1, Target: 2, Criteria: []string{"time", "cost"}, Algorithm: AlgorithmAStar},
		},
		{
			name:    "missing criteria",
			req:     RouteRequest{Source: 0, Target: 3},
			wantErr: "criteria",
		},
		{
			name:    "unknown criterion",
			req:     RouteRequest{Source: 0, Target: 3, Criteria: []string{"speed"}},
			wantErr: "must be one of",
		},
		{
			name:    "unknown algorithm",
			req:     RouteRequest{Source: 0, Target: 3, Criteria: []string{"time"}, Algorithm: "bfs"},
			wantErr: "algorithm",
		},
		{
			name:    "negative node id",
			req:     RouteRequest{Source: -1, Target: 3, Criteria: []string{"time"}},
			wantErr: "source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateEdgeBulkCreate(t *testing.T) {
	valid := EdgeBulkCreateRequest{Edges: []EdgeCreate{{FromNode: 0, ToNode: 1, Weight: 5.0}}}
	assert.NoError(t, Validate(&valid))

	empty := EdgeBulkCreateRequest{}
	assert.Error(t, Validate(&empty))

	zeroWeight := EdgeBulkCreateRequest{Edges: []EdgeCreate{{FromNode: 0, ToNode: 1}}}
	err := Validate(&zeroWeight)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "weight")
}

func TestValidateRegisterRequest(t *testing.T) {
	assert.NoError(t, Validate(&RegisterRequest{Email: "op@example.com", Password: "secret"}))
	assert.Error(t, Validate(&RegisterRequest{Email: "not-an-email", Password: "secret"}))
	assert.Error(t, Validate(&RegisterRequest{Email: "op@example.com", Password: "short"}))
}

func TestAsyncJobStatusTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		JobQueued:   false,
		JobRunning:  false,
		JobFinished: true,
		JobFailed:   true,
	} {
		s := AsyncJobStatus{Status: status}
		assert.Equal(t, want, s.Terminal(), status)
	}
}

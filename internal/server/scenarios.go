package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"evalgo.org/pathium/models"
)

var (
	// ErrScenarioNotFound is returned for an unknown scenario id
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrScenarioNameTaken is returned when a scenario name already exists
	ErrScenarioNameTaken = errors.New("a scenario with this name already exists")
)

// ScenarioStore holds modeling scenarios and their edge modifications.
type ScenarioStore struct {
	mu        sync.Mutex
	scenarios map[int]*models.ScenarioDetail
	nextID    int
	nextModID int
}

// NewScenarioStore creates an empty store.
func NewScenarioStore() *ScenarioStore {
	return &ScenarioStore{
		scenarios: make(map[int]*models.ScenarioDetail),
		nextID:    1,
		nextModID: 1,
	}
}

// Create adds a scenario with a unique name.
func (s *ScenarioStore) Create(req models.ScenarioCreate) (*models.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.scenarios {
		if existing.Name == req.Name {
			return nil, ErrScenarioNameTaken
		}
	}

	detail := &models.ScenarioDetail{
		Scenario: models.Scenario{
			ID:          s.nextID,
			Name:        req.Name,
			Description: req.Description,
			IsActive:    true,
			CreatedAt:   time.Now().UTC(),
		},
		Modifications: []models.ScenarioModification{},
	}
	s.nextID++
	s.scenarios[detail.ID] = detail

	scenario := detail.Scenario
	return &scenario, nil
}

// List returns scenario summaries ordered by id.
func (s *ScenarioStore) List() []models.Scenario {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Scenario, 0, len(s.scenarios))
	for _, detail := range s.scenarios {
		out = append(out, detail.Scenario)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns one scenario with its modifications.
func (s *ScenarioStore) Get(id int) (*models.ScenarioDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.scenarios[id]
	if !ok {
		return nil, ErrScenarioNotFound
	}

	copied := *detail
	copied.Modifications = append([]models.ScenarioModification{}, detail.Modifications...)
	return &copied, nil
}

// AddModification appends an edge override to a scenario.
func (s *ScenarioStore) AddModification(id int, mod models.ScenarioModification) (*models.ScenarioDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.scenarios[id]
	if !ok {
		return nil, ErrScenarioNotFound
	}

	mod.ID = s.nextModID
	s.nextModID++
	detail.Modifications = append(detail.Modifications, mod)

	copied := *detail
	copied.Modifications = append([]models.ScenarioModification{}, detail.Modifications...)
	return &copied, nil
}

// Modifications returns the overrides for one scenario.
func (s *ScenarioStore) Modifications(id int) ([]models.ScenarioModification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	detail, ok := s.scenarios[id]
	if !ok {
		return nil, ErrScenarioNotFound
	}
	return append([]models.ScenarioModification{}, detail.Modifications...), nil
}

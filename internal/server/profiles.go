package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"evalgo.org/pathium/models"
)

// ErrProfileNameTaken is returned when a profile name already exists
var ErrProfileNameTaken = errors.New("a profile with this name already exists")

// ProfileStore holds named optimization profiles.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[int]models.Profile
	nextID   int
}

// NewProfileStore creates an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[int]models.Profile),
		nextID:   1,
	}
}

// Create adds a profile with a unique name.
func (s *ProfileStore) Create(req models.ProfileCreate) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.profiles {
		if existing.Name == req.Name {
			return nil, ErrProfileNameTaken
		}
	}

	profile := models.Profile{
		ID:              s.nextID,
		Name:            req.Name,
		Description:     req.Description,
		WeightTime:      req.WeightTime,
		WeightDistance:  req.WeightDistance,
		WeightCost:      req.WeightCost,
		TransferPenalty: req.TransferPenalty,
		CreatedAt:       time.Now().UTC(),
	}
	s.nextID++
	s.profiles[profile.ID] = profile

	return &profile, nil
}

// List returns all profiles, newest first.
func (s *ProfileStore) List() []models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

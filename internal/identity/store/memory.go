package store

import (
	"context"
	"sync"
	"time"

	"transferdesk/internal/identity/models"
	"transferdesk/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[string]models.Identity
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{identities: make(map[string]models.Identity)}
}

func (s *InMemoryStore) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identities[identity.NationalID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.identities[identity.NationalID] = *identity
	return nil
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.identities[nationalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &identity, nil
}

func (s *InMemoryStore) UpdateProfile(_ context.Context, profile models.Profile, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[profile.NationalID]
	if !ok {
		return sentinel.ErrNotFound
	}
	identity.FirstName = profile.FirstName
	identity.LastName = profile.LastName
	identity.Phone = profile.Phone
	identity.UpdatedAt = at
	s.identities[profile.NationalID] = identity
	return nil
}

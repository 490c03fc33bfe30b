package session

import (
	"context"
	"slices"
	"sync"

	"welfare-advisor/internal/domain"
)

// Store persists the two session keys: the signed-in user id and the cached
// profile blob.
type Store interface {
	LoadUserID(ctx context.Context) (domain.UserID, error)
	SaveUserID(ctx context.Context, id domain.UserID) error
	// LoadProfile reports false when no profile has been stored.
	LoadProfile(ctx context.Context) (domain.Profile, bool, error)
	SaveProfile(ctx context.Context, p domain.Profile) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu         sync.Mutex
	userID     domain.UserID
	profile    domain.Profile
	hasProfile bool
}

// NewMemoryStore creates a MemoryStore pre-populated with id and profile.
// A nil profile leaves the profile key unset.
func NewMemoryStore(id domain.UserID, profile *domain.Profile) *MemoryStore {
	s := &MemoryStore{userID: id}
	if profile != nil {
		s.profile = cloneProfile(*profile)
		s.hasProfile = true
	}
	return s
}

func (s *MemoryStore) LoadUserID(context.Context) (domain.UserID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, nil
}

func (s *MemoryStore) SaveUserID(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = id
	return nil
}

func (s *MemoryStore) LoadProfile(context.Context) (domain.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProfile(s.profile), s.hasProfile, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = cloneProfile(p)
	s.hasProfile = true
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.profile = domain.Profile{}
	s.hasProfile = false
	return nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	p.BaseTags = slices.Clone(p.BaseTags)
	return p
}

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"certmint/internal/identity"
	"certmint/pkg/platform/sentinel"
)

// MemoryStore is the test double and local-dev backend. It mirrors the
// Postgres store's contract, including duplicate detection.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]identity.User
}

func NewMemory() *MemoryStore {
	return &MemoryStore{users: make(map[string]identity.User)}
}

func (s *MemoryStore) Save(_ context.Context, user identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ID == user.ID {
			continue
		}
		if existing.MobileNo == user.MobileNo || strings.EqualFold(existing.Email, user.Email) {
			return sentinel.ErrDuplicate
		}
		if existing.RegistrationNumber == user.RegistrationNumber {
			return sentinel.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return identity.User{}, sentinel.ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) FindByIdentifier(_ context.Context, identifier string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.MobileNo == identifier || strings.EqualFold(user.Email, identifier) {
			return user, nil
		}
	}
	return identity.User{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Update(_ context.Context, user identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.users {
		if existing.ID == user.ID {
			continue
		}
		if existing.MobileNo == user.MobileNo || strings.EqualFold(existing.Email, user.Email) {
			return sentinel.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]identity.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

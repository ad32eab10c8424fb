package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/model"
	"github.com/ghaggin/storefront/internal/storage"
	"go.uber.org/zap"
)

// State is the session context: the current token and profile, backed by
// durable storage. It is the single source of truth for whether the user is
// authenticated.
type State struct {
	store storage.Storage
	key   string
	log   *zap.Logger

	mu            sync.RWMutex
	token         string
	user          *model.Profile
	authenticated bool
}

// Open reads the persisted token under key. A missing token leaves the state
// unauthenticated.
func Open(ctx context.Context, store storage.Storage, key string, log *zap.Logger) (*State, error) {
	s := &State{
		store: store,
		key:   key,
		log:   log,
	}

	token, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("read %s from storage: %w", key, err)
	default:
		s.token = token
		s.authenticated = token != ""
	}

	return s, nil
}

// NewState is the fx constructor for State.
func NewState(c *config.Config, store storage.Storage, log *zap.Logger) (*State, error) {
	return Open(context.Background(), store, c.Storage.Key, log)
}

func (s *State) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *State) User() *model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *State) Snapshot() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Session{
		Token:           s.token,
		User:            s.user,
		IsAuthenticated: s.authenticated,
	}
}

// Logout clears the session and removes the persisted token. It is safe to
// call on an unauthenticated state.
func (s *State) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.authenticated = false
	s.mu.Unlock()

	if err := s.store.Remove(context.Background(), s.key); err != nil {
		s.log.Error("failed removing persisted token", zap.Error(err))
	}
}

// authenticate persists token before touching in-memory state so a storage
// failure leaves the session as it was.
func (s *State) authenticate(ctx context.Context, token string, user *model.Profile) error {
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.store.Set(ctx, s.key, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	s.authenticated = true
	return nil
}

func (s *State) setUser(user *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

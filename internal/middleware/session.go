package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/storage"
	"go.uber.org/zap"
)

// SessionManager keeps per-browser values in an scs session. To the shell it
// plays the part of the browser's local storage.
type SessionManager struct {
	impl *scs.SessionManager
	log  *zap.Logger
}

func NewSessionManager(c *config.Config, log *zap.Logger) (*SessionManager, error) {
	sm := &SessionManager{log: log}
	sm.impl = scs.New()
	sm.impl.Lifetime = c.Shell.Lifetime
	sm.impl.Cookie.Name = "storefront_session"
	sm.impl.Cookie.HttpOnly = true
	sm.impl.Cookie.SameSite = http.SameSiteLaxMode

	return sm, nil
}

func (s *SessionManager) Wrap(next http.Handler) http.Handler {
	return s.impl.LoadAndSave(next)
}

// Storage returns the storage of the browser session loaded into ctx. ctx must
// come from a request that went through Wrap.
func (s *SessionManager) Storage(ctx context.Context) storage.Storage {
	return &sessionStorage{impl: s.impl, ctx: ctx}
}

type sessionStorage struct {
	impl *scs.SessionManager
	ctx  context.Context
}

func (s *sessionStorage) Get(_ context.Context, key string) (string, error) {
	if !s.impl.Exists(s.ctx, key) {
		return "", storage.ErrNotFound
	}
	return s.impl.GetString(s.ctx, key), nil
}

func (s *sessionStorage) Set(_ context.Context, key, value string) error {
	// a new credential gets a new session id
	if err := s.impl.RenewToken(s.ctx); err != nil {
		return err
	}
	s.impl.Put(s.ctx, key, value)
	return nil
}

func (s *sessionStorage) Remove(_ context.Context, key string) error {
	s.impl.Remove(s.ctx, key)
	return nil
}

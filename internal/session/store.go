package session

import (
	"context"
	"errors"

	"github.com/ghaggin/storefront/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrEmptyToken = errors.New("login response carried no token")
)

// Backend is the subset of the request gateway the store calls.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Store exposes the account operations on top of a State.
type Store struct {
	*State

	api Backend
	log *zap.Logger
}

type Params struct {
	fx.In

	State   *State
	Backend Backend
	Log     *zap.Logger
}

func New(p Params) *Store {
	return NewStore(p.State, p.Backend, p.Log)
}

func NewStore(state *State, api Backend, log *zap.Logger) *Store {
	return &Store{
		State: state,
		api:   api,
		log:   log,
	}
}

// Login exchanges credentials for a token. On failure the current session is
// left untouched.
func (s *Store) Login(ctx context.Context, username, password string) (model.Session, error) {
	var res model.LoginResult
	err := s.api.Post(ctx, "/auth/login", model.Credentials{Username: username, Password: password}, &res)
	if err != nil {
		s.log.Info("login failed", zap.String("username", username), zap.Error(err))
		return model.Session{}, err
	}

	if err := s.authenticate(ctx, res.Token, res.User); err != nil {
		return model.Session{}, err
	}

	s.log.Info("logged in", zap.String("username", username))
	return s.Snapshot(), nil
}

func (s *Store) Register(ctx context.Context, data model.Registration) error {
	if err := s.api.Post(ctx, "/auth/register", data, nil); err != nil {
		s.log.Info("registration failed", zap.String("username", data.Username), zap.Error(err))
		return err
	}
	return nil
}

// FetchProfile replaces the stored profile with the backend's. The caller is
// expected to hold a token.
func (s *Store) FetchProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	if err := s.api.Get(ctx, "/user/profile", &p); err != nil {
		return nil, err
	}

	s.setUser(&p)
	return &p, nil
}

// UpdateProfile sends the changed fields and reloads the profile.
func (s *Store) UpdateProfile(ctx context.Context, p model.Profile) (*model.Profile, error) {
	if err := s.api.Put(ctx, "/user/profile", p, nil); err != nil {
		return nil, err
	}
	return s.FetchProfile(ctx)
}

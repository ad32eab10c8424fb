package backend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ghaggin/storefront/internal/config"
	"github.com/ghaggin/storefront/internal/model"
	"github.com/ghaggin/storefront/internal/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	errBadCredentials  = errors.New("invalid username or password")
	errAccountDisabled = errors.New("account is disabled")
	errMissingFields   = errors.New("username and password are required")
	errUsernameTaken   = errors.New("username already exists")
	errUserNotFound    = errors.New("user does not exist")
)

const (
	statusDisabled = 0
	statusEnabled  = 1
)

type Controller struct {
	repo   repository.Repository
	tokens *tokenIssuer
	log    *zap.Logger
}

type ControllerParams struct {
	fx.In

	Logger *zap.Logger
	Config *config.Config
	Repo   repository.Repository
}

func NewController(p ControllerParams) (*Controller, error) {
	return &Controller{
		log:  p.Logger,
		repo: p.Repo,
		tokens: &tokenIssuer{
			secret: []byte(p.Config.Backend.Secret),
			ttl:    p.Config.Backend.TokenTTL,
			now:    time.Now,
		},
	}, nil
}

func (c *Controller) Login(ctx context.Context, username string, password string) (*model.LoginResult, error) {
	u, err := c.repo.GetUserByName(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	if u.Status == statusDisabled {
		return nil, errAccountDisabled
	}

	token, err := c.tokens.issue(u.ID, u.Username)
	if err != nil {
		return nil, err
	}

	p := u.Profile
	return &model.LoginResult{Token: token, User: &p}, nil
}

func (c *Controller) Register(ctx context.Context, r model.Registration) error {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return errMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = c.repo.AddUser(ctx, &repository.User{
		Profile: model.Profile{
			Username: r.Username,
			Email:    r.Email,
			Phone:    r.Phone,
			Status:   statusEnabled,
		},
		PasswordHash: string(hash),
	})
	if errors.Is(err, repository.ErrUserTaken) {
		return errUsernameTaken
	}
	return err
}

// Authenticate resolves a bearer token to a user id.
func (c *Controller) Authenticate(token string) (int64, error) {
	return c.tokens.userID(token)
}

func (c *Controller) Profile(ctx context.Context, id int64) (*model.Profile, error) {
	u, err := c.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p := u.Profile
	return &p, nil
}

// UpdateProfile changes contact details only.
func (c *Controller) UpdateProfile(ctx context.Context, id int64, p model.Profile) error {
	u, err := c.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return errUserNotFound
	}
	if err != nil {
		return err
	}

	u.Email = p.Email
	u.Phone = p.Phone
	u.Avatar = p.Avatar
	return c.repo.UpdateUser(ctx, u)
}

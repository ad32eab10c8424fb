package repository

import (
	"context"
	"errors"

	"github.com/ghaggin/storefront/internal/model"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrUserTaken = errors.New("username already exists")
)

// User is an account as the development backend stores it.
type User struct {
	model.Profile
	PasswordHash string `json:"passwordHash"`
}

type Repository interface {
	GetUserByName(ctx context.Context, name string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	AddUser(ctx context.Context, user *User) error
	UpdateUser(ctx context.Context, user *User) error
}

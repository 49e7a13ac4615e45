package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/accounts/internal/domain"
)

// ErrDuplicateEntry is returned by Create and Update when the username or
// email is already used by another account.
var ErrDuplicateEntry = errors.New("duplicate entry")

// DuplicateEntryError names the unique field that was violated. It matches
// ErrDuplicateEntry under errors.Is.
type DuplicateEntryError struct {
	Field string
}

func (e *DuplicateEntryError) Error() string {
	if e.Field == "" {
		return ErrDuplicateEntry.Error()
	}
	return ErrDuplicateEntry.Error() + " (" + e.Field + ")"
}

func (e *DuplicateEntryError) Is(target error) bool {
	return target == ErrDuplicateEntry
}

// ErrNotFound is returned by Update and Delete when the account is gone.
var ErrNotFound = errors.New("not found")

// UserRepository persists accounts. Lookups return (nil, nil) when no row
// matches.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

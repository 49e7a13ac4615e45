// Package memory keeps accounts in process memory. It enforces the same
// uniqueness rules as the postgres schema and is used for local runs
// (DB_DRIVER=memory) and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("creating user: %w", &repository.DuplicateEntryError{Field: "id"})
	}
	if err := r.checkUnique(user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	r.users[user.ID] = user.Clone()
	return nil
}

func (r *UserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkUnique(user); err != nil {
		return fmt.Errorf("updating user %s: %w", user.ID, err)
	}

	next := user.Clone()
	next.RegistrationDate = stored.RegistrationDate
	next.Verified = stored.Verified || user.Verified
	r.users[user.ID] = next
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[id]; ok {
		return u.Clone(), nil
	}
	return nil, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email }), nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username }), nil
}

func (r *UserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u.Clone())
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		if c := a.RegistrationDate.Compare(b.RegistrationDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (r *UserRepo) find(match func(*domain.User) bool) *domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return u.Clone()
		}
	}
	return nil
}

// checkUnique must be called with the write lock held.
func (r *UserRepo) checkUnique(user *domain.User) error {
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username {
			return &repository.DuplicateEntryError{Field: "username"}
		}
		if u.Email == user.Email {
			return &repository.DuplicateEntryError{Field: "email"}
		}
	}
	return nil
}

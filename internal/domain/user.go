package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// RoleUser is granted to every account, whether or not it is stored.
const RoleUser = "ROLE_USER"

type User struct {
	ID               uuid.UUID `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Roles            []string  `json:"roles"`
	Presentation     string    `json:"presentation"`
	RegistrationDate time.Time `json:"registration_date"`
	LastLoginDate    time.Time `json:"last_login_date"`
	Verified         bool      `json:"verified"`
}

// NewUser returns an unverified account with the default role and both
// timestamps set to now.
func NewUser(username, email, passwordHash string, now time.Time) *User {
	return &User{
		ID:               uuid.New(),
		Username:         username,
		Email:            email,
		PasswordHash:     passwordHash,
		Roles:            []string{RoleUser},
		RegistrationDate: now,
		LastLoginDate:    now,
	}
}

// GetRoles returns the stored roles with RoleUser guaranteed to be present.
func (u *User) GetRoles() []string {
	roles := slices.Clone(u.Roles)
	if !slices.Contains(roles, RoleUser) {
		roles = append(roles, RoleUser)
	}
	return roles
}

// MarkVerified flips the verified flag. It reports whether the flag changed;
// a verified account never goes back to unverified.
func (u *User) MarkVerified() bool {
	if u.Verified {
		return false
	}
	u.Verified = true
	return true
}

func (u *User) TouchLastLogin(now time.Time) {
	u.LastLoginDate = now
}

// Clone returns a deep copy so stores can hand out values without sharing
// the roles slice.
func (u *User) Clone() *User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

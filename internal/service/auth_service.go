package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/metrics"
	"github.com/vedran77/accounts/internal/repository"
	"github.com/vedran77/accounts/pkg/validator"
)

// Hasher hashes and checks passwords. *security.PasswordHasher satisfies it.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) bool
	NeedsRehash(encoded string) bool
}

const (
	IdentifyByUsername = "username"
	IdentifyByEmail    = "email"
)

type AuthService struct {
	users      repository.UserRepository
	hasher     Hasher
	identifier string
	metrics    *metrics.Metrics
	logger     logrus.FieldLogger
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService looks accounts up by identifier, which is IdentifyByUsername
// or IdentifyByEmail. Anything else falls back to username.
func NewAuthService(
	users repository.UserRepository,
	hasher Hasher,
	identifier string,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *AuthService {
	if identifier != IdentifyByEmail {
		identifier = IdentifyByUsername
	}
	return &AuthService{
		users:      users,
		hasher:     hasher,
		identifier: identifier,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *AuthService) IdentifierField() string {
	return s.identifier
}

// Authenticate checks a login attempt. An unknown identifier and a wrong
// password both yield ErrInvalidCredentials. On success the last login date
// is stored, and a hash in an outdated format is replaced.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	if validator.ValidateLogin(identifier, password).HasErrors() {
		s.metrics.Logins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if user == nil {
		// burn the same work as a real check
		s.hasher.Verify(s.placeholderHash(), password)
		s.metrics.Logins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		s.metrics.Logins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	user.TouchLastLogin(s.now())
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if hash, err := s.hasher.Hash(password); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("rehashing password")
		} else {
			user.PasswordHash = hash
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("saving user: %w", err)
	}
	s.metrics.Logins.WithLabelValues("success").Inc()

	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return user, nil
}

// CurrentUser resolves a session's user id. It returns (nil, nil) when the
// id is malformed or the account no longer exists.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, nil
	}
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	if s.identifier == IdentifyByEmail {
		return s.users.GetByEmail(ctx, validator.NormalizeEmail(identifier))
	}
	return s.users.GetByUsername(ctx, validator.NormalizeUsername(identifier))
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

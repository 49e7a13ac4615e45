package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/metrics"
	"github.com/vedran77/accounts/internal/repository"
	"github.com/vedran77/accounts/pkg/validator"
)

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

type RegistrationService struct {
	users    repository.UserRepository
	hasher   Hasher
	verifier *VerificationService
	metrics  *metrics.Metrics
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewRegistrationService(
	users repository.UserRepository,
	hasher Hasher,
	verifier *VerificationService,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *RegistrationService {
	return &RegistrationService{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an unverified account and mails its verification link.
// Input problems, including a taken username or email, come back as a
// *ValidationError. Store and mail failures are returned wrapped.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	username := validator.NormalizeUsername(input.Username)
	email := validator.NormalizeEmail(input.Email)

	if errs := validator.ValidateRegister(username, email, input.Password, input.ConfirmPassword); errs.HasErrors() {
		var cause error
		if input.Password != input.ConfirmPassword {
			cause = ErrPasswordMismatch
		}
		s.metrics.Registrations.WithLabelValues("invalid").Inc()
		return nil, newValidationError(errs, cause)
	}

	if err := s.checkAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.metrics.Registrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := domain.NewUser(username, email, hash, s.now())

	// The lookups above are only advisory. Two concurrent requests can both
	// pass them; the store's unique constraint decides.
	if err := s.users.Create(ctx, user); err != nil {
		var dup *repository.DuplicateEntryError
		if errors.As(err, &dup) && (dup.Field == "username" || dup.Field == "email") {
			s.metrics.Registrations.WithLabelValues("duplicate").Inc()
			return nil, duplicateError(dup)
		}
		s.metrics.Registrations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if err := s.verifier.SendVerificationEmail(ctx, user); err != nil {
		s.metrics.Registrations.WithLabelValues("error").Inc()
		s.rollback(user)
		return nil, err
	}

	s.metrics.Registrations.WithLabelValues("success").Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")

	return user, nil
}

func (s *RegistrationService) checkAvailable(ctx context.Context, username, email string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if existing != nil {
		s.metrics.Registrations.WithLabelValues("duplicate").Inc()
		return duplicateError(&repository.DuplicateEntryError{Field: "username"})
	}

	existing, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if existing != nil {
		s.metrics.Registrations.WithLabelValues("duplicate").Inc()
		return duplicateError(&repository.DuplicateEntryError{Field: "email"})
	}
	return nil
}

// rollback removes an account whose verification email could not be sent,
// so the same username and email can register again.
func (s *RegistrationService) rollback(user *domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.users.Delete(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("removing user after failed verification email")
	}
}

func duplicateError(dup *repository.DuplicateEntryError) *ValidationError {
	fields := make(validator.ValidationErrors)
	if dup.Field == "email" {
		fields.Add("email", "There is already an account with this email")
		return newValidationError(fields, fmt.Errorf("%w: %w", ErrEmailTaken, dup))
	}
	fields.Add("username", "There is already an account with this username")
	return newValidationError(fields, fmt.Errorf("%w: %w", ErrUsernameTaken, dup))
}

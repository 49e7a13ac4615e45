package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/mailer"
	"github.com/vedran77/accounts/internal/metrics"
	"github.com/vedran77/accounts/internal/repository"
	"github.com/vedran77/accounts/internal/verification"
)

const verifyEmailPath = "/verify/email"

type VerificationConfig struct {
	// AppURL is the absolute base the emailed link points at, without a
	// trailing slash.
	AppURL string
	From   mailer.Address
}

type VerificationService struct {
	users   repository.UserRepository
	codec   *verification.Codec
	sender  mailer.Sender
	cfg     VerificationConfig
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewVerificationService(
	users repository.UserRepository,
	codec *verification.Codec,
	sender mailer.Sender,
	cfg VerificationConfig,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) *VerificationService {
	return &VerificationService{
		users:   users,
		codec:   codec,
		sender:  sender,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// SignedURL returns the absolute verification link for token.
func (s *VerificationService) SignedURL(token string) string {
	return s.cfg.AppURL + verifyEmailPath + "?token=" + url.QueryEscape(token)
}

// SendVerificationEmail issues a fresh token for user and mails the link.
// It returns once the transport accepted the message.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, user *domain.User) error {
	token, expires, err := s.codec.Issue(user, s.now())
	if err != nil {
		return fmt.Errorf("issuing verification token: %w", err)
	}

	msg, err := mailer.VerificationEmail(s.cfg.From, mailer.Address{Email: user.Email}, s.SignedURL(token), s.codec.TTL())
	if err != nil {
		return fmt.Errorf("building verification email: %w", err)
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.EmailsSent.WithLabelValues("verification", "error").Inc()
		return fmt.Errorf("sending verification email: %w", err)
	}
	s.metrics.EmailsSent.WithLabelValues("verification", "sent").Inc()

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"expires_at": expires,
	}).Info("verification email sent")
	return nil
}

// Verify consumes a link token and marks its subject verified. Following a
// valid link again succeeds without changing anything.
func (s *VerificationService) Verify(ctx context.Context, token string) (*domain.User, error) {
	res := s.codec.Resolve(token, s.now())
	switch res.Status {
	case verification.Expired:
		s.metrics.Verifications.WithLabelValues(res.Status.String()).Inc()
		return nil, ErrTokenExpired
	case verification.Invalid:
		s.metrics.Verifications.WithLabelValues(res.Status.String()).Inc()
		return nil, ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, res.Subject)
	if err != nil {
		s.metrics.Verifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		s.metrics.Verifications.WithLabelValues("invalid").Inc()
		return nil, ErrUserNotFound
	}

	// A link mailed before an email change must not verify the new address.
	if user.Email != res.Email {
		s.metrics.Verifications.WithLabelValues("invalid").Inc()
		return nil, ErrTokenInvalid
	}

	if !user.MarkVerified() {
		s.metrics.Verifications.WithLabelValues("already_verified").Inc()
		return user, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		s.metrics.Verifications.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("saving user: %w", err)
	}
	s.metrics.Verifications.WithLabelValues("verified").Inc()

	s.logger.WithField("user_id", user.ID).Info("email verified")
	return user, nil
}

// Resend mails a new link to an account that is still unverified.
func (s *VerificationService) Resend(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Verified {
		return user, ErrAlreadyVerified
	}

	if err := s.SendVerificationEmail(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

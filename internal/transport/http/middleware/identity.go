package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/session"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Identity is who the current request acts as. User is nil for anonymous
// visitors.
type Identity struct {
	Session *session.Session
	User    *domain.User
}

func (i *Identity) Authenticated() bool {
	return i != nil && i.User != nil
}

// UserLoader resolves the user id stored in a session.
type UserLoader interface {
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}

// Identify loads the session named by the request cookie, resolves its user
// and stores the result in the request context. A session pointing at a
// deleted account is treated as anonymous.
func Identify(sessions *session.Manager, users UserLoader, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Load(r)
			if err != nil {
				logger.WithError(err).Error("loading session")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			id := &Identity{Session: s}
			if s.Authenticated() {
				user, err := users.CurrentUser(r.Context(), s.UserID())
				if err != nil {
					logger.WithError(err).Error("loading session user")
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				if user == nil {
					s.Data.UserID = ""
				}
				id.User = user
			}

			ctx := context.WithValue(r.Context(), IdentityKey, id)
			ctx = session.NewContext(ctx, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the identity stored by Identify, or an empty
// anonymous one.
func IdentityFrom(ctx context.Context) *Identity {
	if id, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return id
	}
	return &Identity{}
}

// GetUserID extracts the authenticated user's ID from request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	id := IdentityFrom(ctx)
	if !id.Authenticated() {
		return uuid.Nil, false
	}
	return id.User.ID, true
}

// RequireAuth redirects anonymous visitors to loginPath.
func RequireAuth(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IdentityFrom(r.Context()).Authenticated() {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

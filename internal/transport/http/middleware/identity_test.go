package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/session"
)

type loaderFunc func(ctx context.Context, userID string) (*domain.User, error)

func (f loaderFunc) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return f(ctx, userID)
}

func newSessions(t *testing.T) *session.Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewManager(session.NewRedisStore(client, time.Hour), session.Options{CookieName: "sid", TTL: time.Hour})
}

// loggedInCookie stores an authenticated session and returns its cookie.
func loggedInCookie(t *testing.T, sessions *session.Manager, userID string) *http.Cookie {
	t.Helper()
	s, err := sessions.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Login(context.Background(), rec, s, userID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func captureIdentity(got **Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentify_Anonymous(t *testing.T) {
	sessions := newSessions(t)
	loader := loaderFunc(func(context.Context, string) (*domain.User, error) {
		t.Fatal("loader must not be called for anonymous sessions")
		return nil, nil
	})

	var got *Identity
	rec := httptest.NewRecorder()
	Identify(sessions, loader, quietLogger())(captureIdentity(&got)).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.False(t, got.Authenticated())
	assert.NotNil(t, got.Session)
}

func TestIdentify_Authenticated(t *testing.T) {
	sessions := newSessions(t)
	user := domain.NewUser("Robert", "me@example.com", "h", time.Now())
	loader := loaderFunc(func(_ context.Context, id string) (*domain.User, error) {
		if id == user.ID.String() {
			return user, nil
		}
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(loggedInCookie(t, sessions, user.ID.String()))

	var got *Identity
	Identify(sessions, loader, quietLogger())(captureIdentity(&got)).ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, got.Authenticated())
	assert.Equal(t, "Robert", got.User.Username)
}

func TestIdentify_DeletedUserIsAnonymous(t *testing.T) {
	sessions := newSessions(t)
	loader := loaderFunc(func(context.Context, string) (*domain.User, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(loggedInCookie(t, sessions, uuid.NewString()))

	var got *Identity
	Identify(sessions, loader, quietLogger())(captureIdentity(&got)).ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, got.Authenticated())
	assert.False(t, got.Session.Authenticated())
}

func TestIdentify_LoaderFailure(t *testing.T) {
	sessions := newSessions(t)
	loader := loaderFunc(func(context.Context, string) (*domain.User, error) {
		return nil, errors.New("db down")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(loggedInCookie(t, sessions, uuid.NewString()))

	rec := httptest.NewRecorder()
	Identify(sessions, loader, quietLogger())(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	user := domain.NewUser("Robert", "me@example.com", "h", time.Now())
	ctx := context.WithValue(context.Background(), IdentityKey, &Identity{User: user})
	id, ok := GetUserID(ctx)
	require.True(t, ok)
	assert.Equal(t, user.ID, id)
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verify/resend", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	user := domain.NewUser("Robert", "me@example.com", "h", time.Now())
	req := httptest.NewRequest(http.MethodPost, "/verify/resend", nil)
	req = req.WithContext(context.WithValue(req.Context(), IdentityKey, &Identity{User: user}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

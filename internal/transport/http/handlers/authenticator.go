package handlers

import (
	"errors"
	"net/http"

	"github.com/vedran77/accounts/internal/domain"
	"github.com/vedran77/accounts/internal/service"
	"github.com/vedran77/accounts/internal/session"
)

// Authenticator decides what the browser sees once credentials have been
// checked, by login or right after registration.
type Authenticator interface {
	OnAuthenticationSuccess(w http.ResponseWriter, r *http.Request, user *domain.User) error
	OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err error) error
}

// RedirectAuthenticator binds the user to the session and sends the browser
// home, or back to the login form with a flash on failure.
type RedirectAuthenticator struct {
	sessions    *session.Manager
	successPath string
	loginPath   string
}

func NewRedirectAuthenticator(sessions *session.Manager) *RedirectAuthenticator {
	return &RedirectAuthenticator{sessions: sessions, successPath: "/", loginPath: "/login"}
}

func (a *RedirectAuthenticator) OnAuthenticationSuccess(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	s, err := a.current(r)
	if err != nil {
		return err
	}
	if err := a.sessions.Login(r.Context(), w, s, user.ID.String()); err != nil {
		return err
	}

	http.Redirect(w, r, a.successPath, http.StatusFound)
	return nil
}

// OnAuthenticationFailure never says whether the identifier exists.
func (a *RedirectAuthenticator) OnAuthenticationFailure(w http.ResponseWriter, r *http.Request, err error) error {
	s, loadErr := a.current(r)
	if loadErr != nil {
		return loadErr
	}

	s.Data.LastUsername = r.PostFormValue("_username")
	s.AddFlash(flashLoginError, failureMessage(err))
	if err := a.sessions.Save(r.Context(), w, s); err != nil {
		return err
	}

	http.Redirect(w, r, a.loginPath, http.StatusFound)
	return nil
}

func (a *RedirectAuthenticator) current(r *http.Request) (*session.Session, error) {
	if s, ok := session.FromContext(r.Context()); ok {
		return s, nil
	}
	return a.sessions.Load(r)
}

func failureMessage(err error) string {
	if errors.Is(err, service.ErrInvalidCredentials) {
		return "Invalid credentials."
	}
	return "Authentication failed."
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/service"
	"github.com/vedran77/accounts/internal/session"
	"github.com/vedran77/accounts/internal/transport/http/middleware"
)

type AuthHandler struct {
	registration  *service.RegistrationService
	verification  *service.VerificationService
	authService   *service.AuthService
	sessions      *session.Manager
	authenticator Authenticator
	pages         *Pages
	logger        logrus.FieldLogger
}

func NewAuthHandler(
	registration *service.RegistrationService,
	verification *service.VerificationService,
	authService *service.AuthService,
	sessions *session.Manager,
	authenticator Authenticator,
	pages *Pages,
	logger logrus.FieldLogger,
) *AuthHandler {
	return &AuthHandler{
		registration:  registration,
		verification:  verification,
		authService:   authService,
		sessions:      sessions,
		authenticator: authenticator,
		pages:         pages,
		logger:        logger,
	}
}

func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageRegister, &view{})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	input := service.RegisterInput{
		Username:        r.PostFormValue("registration_form[username]"),
		Email:           r.PostFormValue("registration_form[email]"),
		Password:        r.PostFormValue("registration_form[password][first]"),
		ConfirmPassword: r.PostFormValue("registration_form[password][second]"),
	}

	user, err := h.registration.Register(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusUnprocessableEntity, pageRegister, &view{
				Form:   registerForm{Username: input.Username, Email: input.Email},
				Errors: verr.Fields,
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	if err := h.authenticator.OnAuthenticationSuccess(w, r, user); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	v := &view{IdentifierLabel: "Username"}
	if h.authService.IdentifierField() == service.IdentifyByEmail {
		v.IdentifierLabel = "Email"
	}
	if s, ok := session.FromContext(r.Context()); ok {
		v.LastUsername = s.Data.LastUsername
	}
	h.render(w, r, http.StatusOK, pageLogin, v)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Authenticate(r.Context(), r.PostFormValue("_username"), r.PostFormValue("_password"))
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		err = h.authenticator.OnAuthenticationFailure(w, r, err)
	case err != nil:
		// store unavailable: not a credentials problem
	default:
		err = h.authenticator.OnAuthenticationSuccess(w, r, user)
	}
	if err != nil {
		h.serverError(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if ok {
		if _, err := h.sessions.Logout(r.Context(), w, s); err != nil {
			h.serverError(w, r, err)
			return
		}
		if uid, ok := middleware.GetUserID(r.Context()); ok {
			h.logger.WithField("user_id", uid).Info("user logged out")
		}
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

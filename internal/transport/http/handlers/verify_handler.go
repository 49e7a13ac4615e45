package handlers

import (
	"errors"
	"net/http"

	"github.com/vedran77/accounts/internal/service"
	"github.com/vedran77/accounts/internal/transport/http/middleware"
)

const (
	msgVerified        = "Your email address has been verified."
	msgVerifyExpired   = "The link to verify your email has expired. Please request a new link."
	msgVerifyInvalid   = "The link to verify your email is invalid. Please request a new link."
	msgAlreadyVerified = "Your email address is already verified."
)

// VerifyEmail consumes the link from the confirmation email. The token
// names its user, so the visitor need not be logged in.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	_, err := h.verification.Verify(r.Context(), r.URL.Query().Get("token"))
	switch {
	case err == nil:
		h.flashAndRedirect(w, r, flashSuccess, msgVerified, "/")
	case errors.Is(err, service.ErrTokenExpired):
		h.flashAndRedirect(w, r, flashVerifyError, msgVerifyExpired, "/register")
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrUserNotFound):
		h.flashAndRedirect(w, r, flashVerifyError, msgVerifyInvalid, "/register")
	default:
		h.serverError(w, r, err)
	}
}

// ResendVerification mails a fresh link to the logged in user.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := h.verification.Resend(r.Context(), userID)
	switch {
	case err == nil:
		h.flashAndRedirect(w, r, flashInfo, "A new verification link has been sent to "+user.Email+".", "/")
	case errors.Is(err, service.ErrAlreadyVerified):
		h.flashAndRedirect(w, r, flashInfo, msgAlreadyVerified, "/")
	default:
		h.serverError(w, r, err)
	}
}

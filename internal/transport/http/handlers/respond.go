package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/session"
	"github.com/vedran77/accounts/internal/transport/http/middleware"
)

func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageHome, &view{})
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// render fills in the identity and pending flashes, then writes the page.
// Popped flashes are saved so they show exactly once.
func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, v *view) {
	v.Identity = middleware.IdentityFrom(r.Context())

	if s, ok := session.FromContext(r.Context()); ok {
		v.Flashes = s.PopFlashes()
		if len(v.Flashes) > 0 {
			if err := h.sessions.Save(r.Context(), w, s); err != nil {
				h.serverError(w, r, err)
				return
			}
		}
	}

	if err := h.pages.Render(w, status, page, v); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *AuthHandler) flashAndRedirect(w http.ResponseWriter, r *http.Request, kind, message, target string) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	s.AddFlash(kind, message)
	if err := h.sessions.Save(r.Context(), w, s); err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AuthHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

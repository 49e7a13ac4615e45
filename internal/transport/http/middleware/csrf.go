package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins is a list of allowed origins for CSRF validation.
	// Should match CORS allowed origins.
	AllowedOrigins []string
}

// CSRF returns middleware that validates Origin/Referer headers on
// state-changing requests. The session cookie is sent by the browser with
// every request, so a form posted from another site must be refused.
func CSRF(config CSRFConfig) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool)
	for _, origin := range config.AllowedOrigins {
		allowedSet[normalizeOrigin(origin)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			// Origin first, Referer as fallback
			if origin := r.Header.Get("Origin"); origin != "" {
				if !allowedSet[normalizeOrigin(origin)] {
					http.Error(w, "CSRF validation failed: invalid origin", http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if referer := r.Header.Get("Referer"); referer != "" {
				if !allowedSet[normalizeOrigin(extractOrigin(referer))] {
					http.Error(w, "CSRF validation failed: invalid referer", http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			http.Error(w, "CSRF validation failed: missing origin", http.StatusForbidden)
		})
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// extractOrigin extracts the origin (scheme://host:port) from a URL.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

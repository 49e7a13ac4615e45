package handlers

import (
	"net/http"

	logger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/session"
	"github.com/vedran77/accounts/internal/transport/http/middleware"
)

type RouterConfig struct {
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
}

func NewRouter(
	h *AuthHandler,
	sessions *session.Manager,
	users middleware.UserLoader,
	cfg RouterConfig,
	log *logrus.Logger,
) http.Handler {
	r := chi.NewRouter()

	// middlewares
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.Logger("router", log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public
	r.Get("/health", Health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Pages, bound to the browser session
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(middleware.CSRFConfig{AllowedOrigins: cfg.AllowedOrigins}))
		r.Use(middleware.Identify(sessions, users, log))

		r.Get("/", h.Home)
		r.Get("/register", h.ShowRegister)
		r.Post("/register", h.Register)
		r.Get("/verify/email", h.VerifyEmail)
		r.Get("/login", h.ShowLogin)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)

		r.With(middleware.RequireAuth("/login")).Post("/verify/resend", h.ResendVerification)
	})

	return r
}

// Package app wires the accounts server together and runs it until the
// process is told to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/config"
	"github.com/vedran77/accounts/internal/mailer"
	"github.com/vedran77/accounts/internal/metrics"
	"github.com/vedran77/accounts/internal/security"
	"github.com/vedran77/accounts/internal/service"
	"github.com/vedran77/accounts/internal/session"
	"github.com/vedran77/accounts/internal/transport/http/handlers"
	"github.com/vedran77/accounts/internal/verification"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg     *config.Config
	logger  *logrus.Logger
	handler http.Handler
	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	// Database
	users, closeStore, err := OpenUserStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	// Sessions
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		a.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	sessions := session.NewManager(session.NewRedisStore(rdb, cfg.SessionTTL), session.Options{
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.CookieSecure,
	})

	// Mail
	sender, err := mailer.New(cfg.MailerDSN, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Services
	hasher := security.NewPasswordHasher(security.DefaultParams)
	codec := verification.NewCodec(cfg.AppSecret, cfg.VerifyTokenTTL)
	verifier := service.NewVerificationService(users, codec, sender, service.VerificationConfig{
		AppURL: cfg.AppURL,
		From:   mailer.Address{Name: cfg.MailerFromName, Email: cfg.MailerFrom},
	}, m, logger)
	registration := service.NewRegistrationService(users, hasher, verifier, m, logger)
	auth := service.NewAuthService(users, hasher, cfg.LoginIdentifier, m, logger)

	// Handlers
	pages, err := handlers.NewPages()
	if err != nil {
		a.Close()
		return nil, err
	}
	authHandler := handlers.NewAuthHandler(registration, verifier, auth, sessions,
		handlers.NewRedirectAuthenticator(sessions), pages, logger)

	a.handler = handlers.NewRouter(authHandler, sessions, auth, handlers.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Gatherer:       reg,
	}, logger)

	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.cfg.ServerPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

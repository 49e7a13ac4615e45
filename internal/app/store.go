package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vedran77/accounts/internal/config"
	"github.com/vedran77/accounts/internal/database"
	"github.com/vedran77/accounts/internal/repository"
	"github.com/vedran77/accounts/internal/repository/memory"
	postgresrepo "github.com/vedran77/accounts/internal/repository/postgres"
)

// OpenUserStore returns the repository selected by cfg.DBDriver and a
// function releasing it. The postgres schema is migrated before returning.
func OpenUserStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (repository.UserRepository, func(), error) {
	switch cfg.DBDriver {
	case "memory":
		logger.Warn("Using in-memory user store; accounts are lost on restart")
		return memory.NewUserRepo(), func() {}, nil

	case "postgres":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("Connected to database")
		return postgresrepo.NewUserRepo(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vedran77/accounts/internal/admin"
	"github.com/vedran77/accounts/internal/app"
	"github.com/vedran77/accounts/internal/config"
	"github.com/vedran77/accounts/internal/logging"
	"github.com/vedran77/accounts/internal/security"
	"golang.org/x/term"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	users, closeStore, err := app.OpenUserStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer closeStore()

	cli := &admin.CLI{
		Users:  users,
		Hasher: security.NewPasswordHasher(security.DefaultParams),
		Out:    os.Stdout,
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}

	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		closeStore()
		os.Exit(1)
	}
}

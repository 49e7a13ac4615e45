package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/accounts/internal/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5433", DBName: "accounts", DBSSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/accounts?sslmode=require", DSN(cfg))
}

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(migrations, files[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "users_username_key")
	assert.Contains(t, string(body), "users_email_key")
}

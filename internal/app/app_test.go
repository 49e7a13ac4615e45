package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/accounts/internal/config"
)

func testConfig(redisAddr string) *config.Config {
	return &config.Config{
		ServerPort:      "0",
		AppURL:          "http://localhost",
		DBDriver:        "memory",
		RedisAddr:       redisAddr,
		AppSecret:       "test-secret",
		VerifyTokenTTL:  time.Hour,
		SessionTTL:      time.Hour,
		SessionCookie:   "ACCOUNTSSESSID",
		MailerDSN:       "null://null",
		MailerFrom:      "registration@clementtrumpff.com",
		MailerFromName:  "Registration",
		LoginIdentifier: "username",
		AllowedOrigins:  []string{"http://localhost"},
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNew_ServesRoutes(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(context.Background(), testConfig(mr.Addr()), quietLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	for _, path := range []string{"/health", "/metrics", "/", "/login", "/register"} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNew_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), testConfig(addr), quietLogger())
	assert.Error(t, err)
}

func TestNew_BadMailerDSN(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(mr.Addr())
	cfg.MailerDSN = "carrier-pigeon://coop"

	_, err := New(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

func TestOpenUserStore_UnknownDriver(t *testing.T) {
	cfg := testConfig("")
	cfg.DBDriver = "mysql"

	_, _, err := OpenUserStore(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unknown DB_DRIVER")
}

func TestRun_StopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(context.Background(), testConfig(mr.Addr()), quietLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	AppURL     string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AppSecret      string
	VerifyTokenTTL time.Duration
	SessionTTL     time.Duration
	SessionCookie  string
	CookieSecure   bool

	MailerDSN      string
	MailerFrom     string
	MailerFromName string

	// LoginIdentifier selects the field looked up on login: "username" or "email".
	LoginIdentifier string
	AllowedOrigins  []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	appURL := strings.TrimSuffix(getEnv("APP_URL", "http://localhost:8080"), "/")

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		AppURL:     appURL,

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "accounts"),
		DBPassword: getEnv("DB_PASSWORD", "accounts_dev_password"),
		DBName:     getEnv("DB_NAME", "accounts"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		AppSecret:      getEnv("APP_SECRET", "dev-secret-change-me"),
		VerifyTokenTTL: parseDuration(getEnv("VERIFY_TOKEN_TTL", "1h"), time.Hour),
		SessionTTL:     parseDuration(getEnv("SESSION_TTL", "336h"), 14*24*time.Hour),
		SessionCookie:  getEnv("SESSION_COOKIE", "ACCOUNTSSESSID"),
		CookieSecure:   parseBool(getEnv("COOKIE_SECURE", "false")),

		MailerDSN:      getEnv("MAILER_DSN", "null://null"),
		MailerFrom:     getEnv("MAILER_FROM", "registration@clementtrumpff.com"),
		MailerFromName: getEnv("MAILER_FROM_NAME", "Registration"),

		LoginIdentifier: getEnv("LOGIN_IDENTIFIER", "username"),
		AllowedOrigins:  withOrigin(splitList(getEnv("ALLOWED_ORIGINS", "")), appURL),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return defaultValue
	}
	return duration
}

func parseInt(value string, defaultValue int) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBool(value string) bool {
	b, _ := strconv.ParseBool(value)
	return b
}

// withOrigin appends origin unless the list already holds it.
func withOrigin(origins []string, origin string) []string {
	for _, o := range origins {
		if strings.TrimSuffix(o, "/") == origin {
			return origins
		}
	}
	return append(origins, origin)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

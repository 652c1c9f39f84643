package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration.  Each field corresponds
// to an environment variable; optional groups (rate limiting, caching,
// locking, events) have their own loaders.
type Config struct {
	Env            string        // APP_ENV (dev, test, prod)
	Port           string        // APP_PORT
	DBUser         string        // DB_USER
	DBPass         string        // DB_PASS (optional)
	DBHost         string        // DB_HOST
	DBPort         string        // DB_PORT
	DBName         string        // DB_NAME
	JWTSecret      string        // JWT_SECRET
	AccessTTLMin   int           // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int           // REFRESH_TOKEN_TTL_DAYS
	BcryptCost     int           // BCRYPT_COST
	LogLevel       string        // LOG_LEVEL (debug, info, warn, error)
	RequestTimeout time.Duration // REQUEST_TIMEOUT, bound on per-request DB work
}

// LoadDotEnv reads variables from the given .env files (default ".env")
// without overriding ones already set.  A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the core configuration.  Every missing or malformed
// required variable is reported in a single error.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:            l.must("APP_ENV"),
		Port:           l.must("APP_PORT"),
		DBUser:         l.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         l.must("DB_HOST"),
		DBPort:         l.must("DB_PORT"),
		DBName:         l.must("DB_NAME"),
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		LogLevel:       strings.ToLower(envStr("LOG_LEVEL", "info")),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
	}
	if len(l.problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(l.problems, "; "))
	}
	return cfg, nil
}

// LoadDB reads only the database settings, for commands that do not
// serve HTTP (migrate).
func LoadDB() (Config, error) {
	var l loader
	cfg := Config{
		DBUser: l.must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: l.must("DB_HOST"),
		DBPort: l.must("DB_PORT"),
		DBName: l.must("DB_NAME"),
	}
	if len(l.problems) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(l.problems, "; "))
	}
	return cfg, nil
}

type loader struct {
	problems []string
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		l.problems = append(l.problems, "missing required env var "+key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.problems = append(l.problems, fmt.Sprintf("invalid int for %s: %q", key, s))
	}
	return n
}

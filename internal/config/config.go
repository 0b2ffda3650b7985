package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderFirebase = "firebase"
	ProviderLocal    = "local"
)

// Config holds process configuration read from the environment.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
	Location  *time.Location

	CORSOrigins     []string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	IdentityProvider string
	Firebase         Firebase
	JWTSecret        string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenCacheTTL time.Duration
}

// Firebase holds service account settings. CredentialsFile takes
// precedence over the inline key fields.
type Firebase struct {
	ProjectID       string
	ClientEmail     string
	PrivateKey      string
	CredentialsFile string
}

// Configured reports whether enough settings are present to build a client.
func (f Firebase) Configured() bool {
	if f.CredentialsFile != "" {
		return true
	}
	return f.ProjectID != "" && f.ClientEmail != "" && f.PrivateKey != ""
}

// Load reads a .env file if one exists, then the environment.
func Load() (Config, error) {
	if err := LoadEnvFile(); err != nil {
		return Config{}, err
	}
	return FromEnv(os.Getenv)
}

// LoadEnvFile copies a .env file in the working directory into the
// environment without overriding variables already set.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// FirebaseFromEnv reads the service account settings. Escaped newlines in
// the private key are expanded.
func FirebaseFromEnv(getenv func(string) string) Firebase {
	return Firebase{
		ProjectID:       getenv("FIREBASE_PROJECT_ID"),
		ClientEmail:     getenv("FIREBASE_CLIENT_EMAIL"),
		PrivateKey:      strings.ReplaceAll(getenv("FIREBASE_PRIVATE_KEY"), `\n`, "\n"),
		CredentialsFile: getenv("FIREBASE_CREDENTIALS_FILE"),
	}
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:             orDefault(getenv("CHORELY_PORT"), "3000"),
		DBPath:           orDefault(getenv("CHORELY_DB_PATH"), "chorely.db"),
		LogLevel:         getenv("CHORELY_LOG_LEVEL"),
		LogFormat:        orDefault(getenv("CHORELY_LOG_FORMAT"), "text"),
		IdentityProvider: strings.ToLower(orDefault(getenv("CHORELY_IDENTITY_PROVIDER"), ProviderFirebase)),
		Firebase:         FirebaseFromEnv(getenv),
		JWTSecret:        getenv("CHORELY_JWT_SECRET"),
		RedisAddr:        getenv("CHORELY_REDIS_ADDR"),
		RedisPassword:    getenv("CHORELY_REDIS_PASSWORD"),
	}

	for _, o := range strings.Split(orDefault(getenv("CHORELY_CORS_ORIGINS"), "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("CHORELY_LOG_FORMAT: unsupported format %q", cfg.LogFormat)
	}

	cfg.Location = time.Local
	if tz := getenv("CHORELY_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("CHORELY_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	var err error
	if cfg.LoginRateLimit, err = intOr(getenv("CHORELY_LOGIN_RATE_LIMIT"), 10); err != nil {
		return Config{}, fmt.Errorf("CHORELY_LOGIN_RATE_LIMIT: %w", err)
	}
	if cfg.RedisDB, err = intOr(getenv("CHORELY_REDIS_DB"), 0); err != nil {
		return Config{}, fmt.Errorf("CHORELY_REDIS_DB: %w", err)
	}
	cfg.LoginRateWindow = time.Minute
	if v := getenv("CHORELY_LOGIN_RATE_WINDOW"); v != "" {
		if cfg.LoginRateWindow, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("CHORELY_LOGIN_RATE_WINDOW: %w", err)
		}
	}
	if cfg.LoginRateLimit < 1 || cfg.LoginRateWindow <= 0 {
		return Config{}, errors.New("CHORELY_LOGIN_RATE_LIMIT and CHORELY_LOGIN_RATE_WINDOW must be positive")
	}
	cfg.TokenCacheTTL = 5 * time.Minute
	if v := getenv("CHORELY_TOKEN_CACHE_TTL"); v != "" {
		if cfg.TokenCacheTTL, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("CHORELY_TOKEN_CACHE_TTL: %w", err)
		}
	}

	switch cfg.IdentityProvider {
	case ProviderFirebase:
		if !cfg.Firebase.Configured() {
			return Config{}, errors.New("firebase identity provider requires FIREBASE_CREDENTIALS_FILE or FIREBASE_PROJECT_ID, FIREBASE_CLIENT_EMAIL and FIREBASE_PRIVATE_KEY")
		}
	case ProviderLocal:
		if cfg.JWTSecret == "" {
			return Config{}, errors.New("local identity provider requires CHORELY_JWT_SECRET")
		}
	default:
		return Config{}, fmt.Errorf("CHORELY_IDENTITY_PROVIDER: unknown provider %q", cfg.IdentityProvider)
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

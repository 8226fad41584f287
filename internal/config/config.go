package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Store backend selectors.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config is the process configuration, read once at startup from TASTERR_*
// environment variables.
type Config struct {
	Addr string

	Store      string
	SQLitePath string
	MongoURI   string
	MongoDB    string

	// RedisAddr is optional; empty disables the summary cache.
	RedisAddr string

	JWTSecret []byte
	TokenTTL  time.Duration

	// MigrationsDir overrides the embedded migrations, for development.
	MigrationsDir string

	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("TASTERR_ADDR", ":8080"),
		Store:         getEnv("TASTERR_STORE", StoreSQLite),
		SQLitePath:    getEnv("TASTERR_SQLITE_PATH", "tasterr.db"),
		MongoURI:      getEnv("TASTERR_MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("TASTERR_MONGO_DB", "tasterr"),
		RedisAddr:     os.Getenv("TASTERR_REDIS_ADDR"),
		MigrationsDir: os.Getenv("TASTERR_MIGRATIONS_DIR"),
	}

	switch cfg.Store {
	case StoreSQLite, StoreMongo:
	default:
		return nil, errors.New("TASTERR_STORE must be sqlite or mongo")
	}

	secret := os.Getenv("TASTERR_JWT_SECRET")
	if secret == "" {
		return nil, errors.New("TASTERR_JWT_SECRET is required")
	}
	cfg.JWTSecret = []byte(secret)

	ttl := getEnv("TASTERR_TOKEN_TTL", "24h")
	d, err := time.ParseDuration(ttl)
	if err != nil {
		return nil, errors.New("TASTERR_TOKEN_TTL: " + err.Error())
	}
	cfg.TokenTTL = d

	if origins := os.Getenv("TASTERR_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package app

import (
	"runtime"
	"time"

	"signup/cmd/internal/users"
	usersapi "signup/cmd/internal/users/api"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// MaxBodyBytes caps POST /users bodies.
	MaxBodyBytes int64

	// Empty DatabaseURL selects the in-memory store.
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32
	UsersTable  string

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// HashConcurrency bounds concurrent Argon2id computations.
	HashConcurrency int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("SIGNUP_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("SIGNUP_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("SIGNUP_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SIGNUP_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SIGNUP_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SIGNUP_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SIGNUP_HTTP_MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:   EnvInt64("SIGNUP_MAX_BODY_BYTES", usersapi.DefaultMaxBodyBytes),

		DatabaseURL: EnvString("SIGNUP_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("SIGNUP_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SIGNUP_DB_MIN_CONNS", 0),
		UsersTable:  EnvString("SIGNUP_USERS_TABLE", users.DefaultTable),

		ReadinessRequireDB: EnvBool("SIGNUP_READINESS_REQUIRE_DB", false),

		HashConcurrency: EnvInt("SIGNUP_HASH_CONCURRENCY", runtime.NumCPU()),
	}
}

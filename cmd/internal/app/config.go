package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, pending migrations run at startup before the server listens.
	MigrateOnStart bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int

	MetricsEnabled bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("PATCH_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("PATCH_LOG_LEVEL", "info"),
		LogFormat: EnvString("PATCH_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("PATCH_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("PATCH_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("PATCH_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("PATCH_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("PATCH_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("PATCH_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("PATCH_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("PATCH_DB_MIN_CONNS", 0),

		MigrateOnStart: EnvBool("PATCH_DB_MIGRATE", true),

		ReadinessRequireDB: EnvBool("PATCH_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvStringSlice("PATCH_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("PATCH_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("PATCH_CORS_MAX_AGE_SECONDS", 600),

		MetricsEnabled: EnvBool("PATCH_METRICS_ENABLED", true),
	}
}

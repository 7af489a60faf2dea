package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	dErrors "profilegate/pkg/domain-errors"
	"profilegate/pkg/platform/middleware/pipeline"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string

	// PipelineSecret signs the bearer tokens the identity pipeline presents.
	PipelineSecret string

	// RegistryOverlay is an optional YAML file merged over the built-in registry.
	RegistryOverlay string

	// AuditDatabaseURL selects the Postgres audit store; empty keeps audit in memory.
	AuditDatabaseURL string
	AuditBuffer      int

	// PseudonymKey keys the audit subject digest.
	PseudonymKey string

	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
}

const (
	defaultAddr            = ":8080"
	defaultEnvironment     = "dev"
	defaultLogLevel        = "info"
	defaultAuditBuffer     = 256
	defaultShutdownTimeout = 10 * time.Second
	defaultRequestTimeout  = 5 * time.Second
)

// FromEnv builds a Server config from environment variables. A .env file in
// the working directory is loaded first when present; real environment
// variables take precedence over it.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:             env("PP_ADDR", defaultAddr),
		Environment:      env("PP_ENV", defaultEnvironment),
		LogLevel:         env("PP_LOG_LEVEL", defaultLogLevel),
		PipelineSecret:   os.Getenv("PP_PIPELINE_SECRET"),
		RegistryOverlay:  os.Getenv("PP_REGISTRY_OVERLAY"),
		AuditDatabaseURL: os.Getenv("PP_AUDIT_DATABASE_URL"),
		PseudonymKey:     os.Getenv("PP_PSEUDONYM_KEY"),
	}

	var err error
	if cfg.AuditBuffer, err = envInt("PP_AUDIT_BUFFER", defaultAuditBuffer); err != nil {
		return Server{}, err
	}
	if cfg.ShutdownTimeout, err = envDuration("PP_SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return Server{}, err
	}
	if cfg.RequestTimeout, err = envDuration("PP_REQUEST_TIMEOUT", defaultRequestTimeout); err != nil {
		return Server{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production guarantees.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "prod") || strings.EqualFold(s.Environment, "production")
}

// Validate rejects configurations the service cannot start with.
func (s Server) Validate() error {
	if len(s.PipelineSecret) < pipeline.MinSecretLength {
		return dErrors.New(dErrors.CodeMisconfigured,
			"PP_PIPELINE_SECRET must be at least "+strconv.Itoa(pipeline.MinSecretLength)+" characters")
	}
	if s.IsProduction() && s.PseudonymKey == "" {
		return dErrors.New(dErrors.CodeMisconfigured, "PP_PSEUDONYM_KEY is required in production")
	}
	if s.AuditBuffer < 0 {
		return dErrors.New(dErrors.CodeMisconfigured, "PP_AUDIT_BUFFER must not be negative")
	}
	return nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeMisconfigured, key+" must be an integer")
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeMisconfigured, key+" must be a duration")
	}
	return d, nil
}

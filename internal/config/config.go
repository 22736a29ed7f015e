package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vrischmann/envconfig"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Config holds everything the reconciler reads from the environment.
type Config struct {
	DestPCIP          string `envconfig:"DEST_PC_IP"`
	DestPCUser        string `envconfig:"DEST_PC_USER"`
	DestPCPass        string `envconfig:"DEST_PC_PASS"`
	SourceProjectName string `envconfig:"SOURCE_PROJECT_NAME"`
	DestProjectName   string `envconfig:"DEST_PROJECT_NAME"`

	DestPCPort     int    `envconfig:"DEST_PC_PORT,default=9440"`
	DestPCInsecure bool   `envconfig:"DEST_PC_INSECURE,default=true"`
	DestPCCACert   string `envconfig:"DEST_PC_CA_CERT"`

	DatabaseURL      string `envconfig:"DATABASE_URL"`
	DatabaseMaxConns int    `envconfig:"DATABASE_MAX_CONNS,default=4"`

	DryRun         bool          `envconfig:"DRY_RUN,default=false"`
	BatchSize      int           `envconfig:"BATCH_SIZE,default=100"`
	JobsPageLength int           `envconfig:"JOBS_PAGE_LENGTH,default=100"`
	BatchPause     time.Duration `envconfig:"BATCH_PAUSE,default=100ms"`

	HTTPRetryAttempts uint          `envconfig:"HTTP_RETRY_ATTEMPTS,default=3"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT,default=0s"`

	LogLevel  string `envconfig:"LOG_LEVEL,default=info"`
	LogFormat string `envconfig:"LOG_FORMAT,default=console"`

	ListenAddr string `envconfig:"LISTEN_ADDR,default=:8080"`
}

// MissingError lists required variables that were not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Vars, ", ")
}

// InvalidError reports a variable whose value is out of range.
type InvalidError struct {
	Var    string
	Reason string
}

func (e *InvalidError) Error() string {
	return "invalid " + e.Var + ": " + e.Reason
}

// Load reads an optional dotenv file and then the process environment.
// Variables already present in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	}
	var c Config
	if err := envconfig.InitWithOptions(&c, envconfig.Options{AllOptional: true}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &c, nil
}

// Validate checks required values. needStore adds DATABASE_URL to the set.
func (c *Config) Validate(needStore bool) error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"DEST_PC_IP", c.DestPCIP},
		{"DEST_PC_USER", c.DestPCUser},
		{"DEST_PC_PASS", c.DestPCPass},
		{"SOURCE_PROJECT_NAME", c.SourceProjectName},
		{"DEST_PROJECT_NAME", c.DestProjectName},
	}
	if needStore {
		required = append(required, struct {
			name  string
			value string
		}{"DATABASE_URL", c.DatabaseURL})
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	if c.BatchSize <= 0 {
		return &InvalidError{Var: "BATCH_SIZE", Reason: fmt.Sprintf("must be positive, got %d", c.BatchSize)}
	}
	if c.JobsPageLength <= 0 {
		return &InvalidError{Var: "JOBS_PAGE_LENGTH", Reason: fmt.Sprintf("must be positive, got %d", c.JobsPageLength)}
	}
	return nil
}

// Endpoint returns the destination management plane connection settings.
func (c *Config) Endpoint() *models.Endpoint {
	return &models.Endpoint{
		Host:     c.DestPCIP,
		Port:     c.DestPCPort,
		Username: c.DestPCUser,
		Password: c.DestPCPass,
		Insecure: c.DestPCInsecure,
		CACert:   c.DestPCCACert,
	}
}

// Package config loads runtime settings from the environment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full server configuration.
type Config struct {
	Server        ServerConfig        `envconfig:"SERVER"`
	Observability ObservabilityConfig `envconfig:"OBSERVABILITY"`
	Profiling     ProfilingConfig     `envconfig:"PROFILING"`
	Statement     StatementConfig     `envconfig:"STATEMENT"`
	Log           LogConfig           `envconfig:"LOG"`
}

type ServerConfig struct {
	Host               string        `envconfig:"HOST" default:"0.0.0.0"`
	Port               int           `envconfig:"PORT" default:"8080"`
	RateLimitPerSecond int           `envconfig:"RATE_LIMIT_PER_SECOND" default:"20"`
	RateLimitBurst     int           `envconfig:"RATE_LIMIT_BURST" default:"40"`
	MaxUploadBytes     int           `envconfig:"MAX_UPLOAD_BYTES" default:"20971520"` // raw file size, see ReadMaxBytes
	ReadTimeout        time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	IdleTimeout        time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins     []string      `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// requestEnvelopeBytes covers the JSON fields sent alongside the file.
const requestEnvelopeBytes = 64 << 10

// ReadMaxBytes is the RPC body limit. Files travel base64-encoded inside JSON,
// so a MaxUploadBytes file needs about 4/3 of that on the wire.
func (s ServerConfig) ReadMaxBytes() int {
	return base64.StdEncoding.EncodedLen(s.MaxUploadBytes) + requestEnvelopeBytes
}

type ObservabilityConfig struct {
	MetricsEnabled bool    `envconfig:"METRICS_ENABLED" default:"true"`
	TracingEnabled bool    `envconfig:"TRACING_ENABLED" default:"false"`
	TraceExporter  string  `envconfig:"TRACE_EXPORTER" default:"stdout"`
	SampleRatio    float64 `envconfig:"SAMPLE_RATIO" default:"1"`
	ServiceName    string  `envconfig:"SERVICE_NAME" default:"yape-insights"`
}

type ProfilingConfig struct {
	Enabled bool `envconfig:"ENABLED" default:"false"`
	Port    int  `envconfig:"PORT" default:"6060"`
}

// StatementConfig tunes statement loading and report defaults.
type StatementConfig struct {
	HeaderScanRows int    `envconfig:"HEADER_SCAN_ROWS" default:"20"`
	DefaultTopN    int    `envconfig:"DEFAULT_TOP_N" default:"5"`
	Timezone       string `envconfig:"TIMEZONE" default:"America/Lima"`
}

type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		problems = append(problems, "rate limit values must not be negative")
	}
	if c.Server.MaxUploadBytes <= 0 {
		problems = append(problems, "max upload bytes must be positive")
	}
	if c.Profiling.Enabled && (c.Profiling.Port < 1 || c.Profiling.Port > 65535) {
		problems = append(problems, fmt.Sprintf("invalid profiling port %d", c.Profiling.Port))
	}
	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		problems = append(problems, fmt.Sprintf("sample ratio %.2f out of range [0,1]", c.Observability.SampleRatio))
	}
	switch c.Observability.TraceExporter {
	case "stdout", "none":
	default:
		problems = append(problems, fmt.Sprintf("unknown trace exporter %q", c.Observability.TraceExporter))
	}
	if c.Statement.HeaderScanRows < 20 {
		problems = append(problems, "header scan rows must be at least 20")
	}
	if c.Statement.DefaultTopN < 1 {
		problems = append(problems, "default top n must be at least 1")
	}
	if _, err := time.LoadLocation(c.Statement.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("invalid timezone %q", c.Statement.Timezone))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Location resolves the statement timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Statement.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps the configured level name to a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", l.Level)
	}
	return level, nil
}

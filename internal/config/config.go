package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/almk-dev/nadac/internal/dataset"
	apperrors "github.com/almk-dev/nadac/internal/errors"
	"github.com/almk-dev/nadac/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "NADAC"

// Config represents the complete application configuration
type Config struct {
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Dataset   DatasetConfig   `yaml:"dataset" envconfig:"DATASET"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
}

// ReportConfig holds the default report parameters
type ReportConfig struct {
	Year  int `yaml:"year" envconfig:"YEAR" validate:"gt=0"`
	Count int `yaml:"count" envconfig:"COUNT" validate:"gte=0"`
}

// DatasetConfig describes where the comparison file lives and how to read it
type DatasetConfig struct {
	// Path of the dataset. Empty means the newest file matching Pattern in DataDir.
	Path       string   `yaml:"path" envconfig:"FILE"`
	Pattern    string   `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	FieldNames []string `yaml:"field_names" envconfig:"FIELD_NAMES" validate:"min=1,dive,required"`
	SkipHeader bool     `yaml:"skip_header" envconfig:"SKIP_HEADER"`
	Delimiter  string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`
}

// Comma returns the delimiter as a rune
func (d DatasetConfig) Comma() rune {
	for _, r := range d.Delimiter {
		return r
	}
	return ','
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout stderr file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Output file,required_if=Output both"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string          `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	ReportTimeout   time.Duration   `yaml:"report_timeout" envconfig:"REPORT_TIMEOUT" validate:"gt=0"`
	MaxCount        int             `yaml:"max_count" envconfig:"MAX_COUNT" validate:"gt=0"`
	IncludeStack    bool            `yaml:"include_stack" envconfig:"INCLUDE_STACK"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig controls OpenTelemetry tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string `yaml:"environment" envconfig:"DEPLOY_ENV"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// ScheduleConfig drives periodic report exports while serving
type ScheduleConfig struct {
	// Spec is a cron expression with a seconds field. Empty disables the schedule.
	Spec    string   `yaml:"spec" envconfig:"SPEC"`
	Outputs []string `yaml:"outputs" envconfig:"OUTPUTS" validate:"required_with=Spec"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Report: ReportConfig{
			Year:  DefaultYear,
			Count: DefaultCount,
		},
		Dataset: DatasetConfig{
			Pattern:    "nadac-comparison-*.csv*",
			FieldNames: domain.DefaultFieldNames(),
			Delimiter:  ",",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stderr",
			FilePath: "logs/nadac.log",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			ReportTimeout:   90 * time.Second,
			MaxCount:        1000,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "nadac-report",
			Environment:    "development",
			TracingEnabled: false,
			MetricsEnabled: true,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "reports",
			LogsDir:    "logs",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path (if
// any), then NADAC_* environment variables, and validates the result. An empty
// path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("load config file %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep
// their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks struct constraints and the dataset field list.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError(describeValidation(err), err)
	}
	if err := dataset.ValidateFieldNames(c.Dataset.FieldNames); err != nil {
		return err
	}
	if c.Report.Count > c.Server.MaxCount {
		return apperrors.NewConfigError(
			fmt.Sprintf("report.count %d exceeds server.max_count %d", c.Report.Count, c.Server.MaxCount), nil)
	}
	return nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "invalid configuration"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return "invalid configuration: " + strings.Join(parts, ", ")
}

// findConfigFile returns the first config file found in the common locations
func findConfigFile() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"nadac.yaml",
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

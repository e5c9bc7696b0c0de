package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
//
// Precedence, lowest to highest: built-in defaults, then an optional
// config.yaml, then IPL_* environment variables. Boolean fields follow the
// file/default value unless set there, since an unset env bool is
// indistinguishable from false.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative paths are
// resolved against the executable directory.
type PathsConfig struct {
	DatasetDir   string `yaml:"dataset_dir" envconfig:"DATASET_DIR"`
	ProcessedDir string `yaml:"processed_dir" envconfig:"PROCESSED_DIR"`
	ResultsDir   string `yaml:"results_dir" envconfig:"RESULTS_DIR"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"gt=0"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"gt=0"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gt=0"`
}

// AnalysisConfig contains tunables for the metrics stage
type AnalysisConfig struct {
	// CAGRYears is the growth horizon in years
	CAGRYears int `yaml:"cagr_years" envconfig:"CAGR_YEARS" validate:"gt=0"`
}

var validate = validator.New()

// Load loads configuration from defaults, an optional YAML file, and
// IPL_* environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	var envCfg Config
	if err := envconfig.Process("IPL", &envCfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	mergeConfigs(cfg, &envCfg)

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// mergeConfigs overlays non-zero env values onto the base config
func mergeConfigs(base, env *Config) {
	if env.Server.Port != 0 {
		base.Server.Port = env.Server.Port
	}
	if env.Server.ReadTimeout != 0 {
		base.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if env.Server.WriteTimeout != 0 {
		base.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if env.Server.IdleTimeout != 0 {
		base.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if env.Server.MaxHeaderBytes != 0 {
		base.Server.MaxHeaderBytes = env.Server.MaxHeaderBytes
	}
	if env.Server.ShutdownTimeout != 0 {
		base.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}
	if len(env.Security.AllowedOrigins) != 0 {
		base.Security.AllowedOrigins = env.Security.AllowedOrigins
	}
	if env.Security.RateLimit.RPS != 0 {
		base.Security.RateLimit.RPS = env.Security.RateLimit.RPS
	}
	if env.Security.RateLimit.Burst != 0 {
		base.Security.RateLimit.Burst = env.Security.RateLimit.Burst
	}
	if env.Logging.Level != "" {
		base.Logging.Level = env.Logging.Level
	}
	if env.Logging.Format != "" {
		base.Logging.Format = env.Logging.Format
	}
	if env.Logging.Output != "" {
		base.Logging.Output = env.Logging.Output
	}
	if env.Logging.FilePath != "" {
		base.Logging.FilePath = env.Logging.FilePath
	}
	if env.Paths.DatasetDir != "" {
		base.Paths.DatasetDir = env.Paths.DatasetDir
	}
	if env.Paths.ProcessedDir != "" {
		base.Paths.ProcessedDir = env.Paths.ProcessedDir
	}
	if env.Paths.ResultsDir != "" {
		base.Paths.ResultsDir = env.Paths.ResultsDir
	}
	if env.Paths.LogsDir != "" {
		base.Paths.LogsDir = env.Paths.LogsDir
	}
	if env.WebSocket.ReadBufferSize != 0 {
		base.WebSocket.ReadBufferSize = env.WebSocket.ReadBufferSize
	}
	if env.WebSocket.WriteBufferSize != 0 {
		base.WebSocket.WriteBufferSize = env.WebSocket.WriteBufferSize
	}
	if env.WebSocket.PingPeriod != 0 {
		base.WebSocket.PingPeriod = env.WebSocket.PingPeriod
	}
	if env.WebSocket.PongWait != 0 {
		base.WebSocket.PongWait = env.WebSocket.PongWait
	}
	if env.Analysis.CAGRYears != 0 {
		base.Analysis.CAGRYears = env.Analysis.CAGRYears
	}
}

// ResolvePaths builds the Paths layout with any configured directory
// overrides applied.
func (c *Config) ResolvePaths() (*Paths, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	return c.applyPathOverrides(paths), nil
}

// ResolvePathsFrom is ResolvePaths anchored at an explicit base directory.
func (c *Config) ResolvePathsFrom(baseDir string) *Paths {
	return c.applyPathOverrides(NewPaths(baseDir))
}

func (c *Config) applyPathOverrides(paths *Paths) *Paths {
	paths.WithDatasetDir(c.Paths.DatasetDir).
		WithProcessedDir(c.Paths.ProcessedDir).
		WithResultsDir(c.Paths.ResultsDir)
	if c.Paths.LogsDir != "" {
		paths.LogsDir = paths.resolve(c.Paths.LogsDir)
	}
	return paths
}

// validateAndNormalize validates the configuration and pins the fields that
// only ever ship one way.
func (c *Config) validateAndNormalize() error {
	// JSON logs only; the trace handler assumes structured output.
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:       DefaultLogLevel,
			Format:      DefaultLogFormat,
			Output:      "both",
			FilePath:    "logs/app.log",
			Development: true,
		},
		Paths: PathsConfig{
			DatasetDir:   DefaultDatasetDir,
			ProcessedDir: DefaultProcessedDir,
			ResultsDir:   DefaultResultsDir,
			LogsDir:      DefaultLogsDir,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Analysis: AnalysisConfig{
			CAGRYears: DefaultCAGRYears,
		},
	}
}

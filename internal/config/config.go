// Package config provides configuration loading with explicit naming
//
// Available functions:
//
//   LoadFromEnvVarsOnly()                     - Environment variables ONLY
//                                               Use: Docker, Kubernetes (no ConfigMap)
//
//   LoadFromYamlFile(path)                    - YAML file ONLY (no env overrides)
//                                               Use: Local development, testing
//
//   LoadFromYamlWithEnvOverrides(path)        - YAML base + Environment overrides
//                                               Use: Kubernetes (ConfigMap + env vars)
//                                               Priority: Env Vars > YAML > Defaults
//
// Environment variables supported:
//
//   SERIAL:
//     - GNSS_SERIAL_DEVICE, GNSS_SERIAL_BAUD_RATE
//     - GNSS_SERIAL_READ_BUFFER, GNSS_SERIAL_ENABLE_UBX
//
//   SYNC:
//     - SYNC_INTERVAL, SYNC_MAX_REFERENCE_AGE
//
//   NTP_CHECK:
//     - NTP_CHECK_ENABLED, NTP_CHECK_SERVERS (comma-separated)
//     - NTP_CHECK_INTERVAL, NTP_CHECK_TIMEOUT, NTP_CHECK_VERSION
//     - NTP_CHECK_MAX_DIVERGENCE
//     - NTP_CHECK_RATE_LIMIT, NTP_CHECK_BURST_SIZE
//     - NTP_CHECK_CB_MAX_REQUESTS, NTP_CHECK_CB_INTERVAL
//     - NTP_CHECK_CB_TIMEOUT, NTP_CHECK_CB_FAILURE_THRESHOLD
//
//   SERVER:
//     - GNSS_TIMESYNC_ADDRESS, GNSS_TIMESYNC_PORT
//     - SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT
//
//   LOGGING:
//     - LOG_LEVEL (trace|debug|info|warn|error|fatal|panic)
//     - LOG_ENABLE_FILE, LOG_FILE_PATH
//
//   METRICS:
//     - METRICS_NAMESPACE, METRICS_SUBSYSTEM
//
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/batuhanky/gnss-timesync/pkg/logger"
)

// Config represents the complete application configuration
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Sync     SyncConfig     `yaml:"sync"`
	NTPCheck NTPCheckConfig `yaml:"ntp_check"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SerialConfig contains GNSS receiver serial link configuration
type SerialConfig struct {
	Device         string `yaml:"device"`
	BaudRate       int    `yaml:"baud_rate"`
	ReadBufferSize int    `yaml:"read_buffer_size"`

	// EnableUBX sends the NAV-TIMEGPS periodic message enable command to
	// the receiver right after the port opens.
	EnableUBX bool `yaml:"enable_ubx"`
}

// SyncConfig contains clock correlation configuration
type SyncConfig struct {
	// Interval is the minimum spacing between two correlation updates.
	// Sentences arriving faster than this only refresh the decoded state.
	Interval time.Duration `yaml:"interval"`

	// MaxReferenceAge marks the reference stale when no update landed for
	// this long. Conversions keep working; the staleness is only reported.
	MaxReferenceAge time.Duration `yaml:"max_reference_age"`
}

// NTPCheckConfig contains the cross-check NTP client configuration
type NTPCheckConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Servers       []string      `yaml:"servers"`
	Interval      time.Duration `yaml:"interval"`
	Timeout       time.Duration `yaml:"timeout"`
	Version       int           `yaml:"version"`
	MaxDivergence time.Duration `yaml:"max_divergence"`

	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	QueriesPerMinute int `yaml:"queries_per_minute"`
	BurstSize        int `yaml:"burst_size"`
}

// CircuitBreakerConfig contains circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Address      string        `yaml:"address"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	EnableFile bool   `yaml:"enable_file"`
	FilePath   string `yaml:"file_path"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Namespace string            `yaml:"namespace"`
	Subsystem string            `yaml:"subsystem"`
	Labels    map[string]string `yaml:"labels"`
}

// LoadFromYamlFile reads configuration from a YAML file only (no env var overrides)
// Use case: Local development, testing
func LoadFromYamlFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("config", "Failed to read config file", err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		logger.Error("config", "Failed to parse config file", err)
		return nil, fmt.Errorf("failed to parse YAML config file %s: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(cfg)

	// Validate configuration
	if err := Validate(cfg); err != nil {
		logger.Error("config", "Invalid configuration", err)
		return nil, fmt.Errorf("configuration validation failed for %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromYamlWithEnvOverrides loads base config from YAML, then overrides with environment variables
// Use case: Kubernetes with ConfigMaps + env vars, Docker with config file + env vars
// Priority: Environment Variables > YAML File > Defaults
func LoadFromYamlWithEnvOverrides(path string) (*Config, error) {
	// First, try to load from YAML file
	cfg, err := LoadFromYamlFile(path)
	if err != nil {
		logger.Warn("config", "Failed to load YAML config file, falling back to env vars only")
		// If file doesn't exist, start from defaults
		cfg = &Config{}
		ApplyDefaults(cfg)
	}

	// Override with environment variables
	applyEnvOverrides(cfg)

	// Validate final configuration
	if err := Validate(cfg); err != nil {
		logger.Error("config", "Invalid configuration after env overrides", err)
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFromEnvVarsOnly loads configuration from environment variables only (no YAML file)
// Use case: Docker containers, Kubernetes pods without ConfigMaps
// Priority: Environment Variables > Defaults
func LoadFromEnvVarsOnly() (*Config, error) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		logger.Error("config", "Invalid configuration from environment", err)
		return nil, fmt.Errorf("environment configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to an existing config
func applyEnvOverrides(cfg *Config) {
	// ---------------------------------------------------------------------------
	// SERIAL - GNSS receiver serial link configuration
	// ---------------------------------------------------------------------------
	if device := os.Getenv("GNSS_SERIAL_DEVICE"); device != "" {
		cfg.Serial.Device = device
	}
	if baud := os.Getenv("GNSS_SERIAL_BAUD_RATE"); baud != "" {
		if b, err := strconv.Atoi(baud); err == nil {
			cfg.Serial.BaudRate = b
		}
	}
	if bufSize := os.Getenv("GNSS_SERIAL_READ_BUFFER"); bufSize != "" {
		if s, err := strconv.Atoi(bufSize); err == nil {
			cfg.Serial.ReadBufferSize = s
		}
	}
	if enableUBX := os.Getenv("GNSS_SERIAL_ENABLE_UBX"); enableUBX != "" {
		if b, err := strconv.ParseBool(enableUBX); err == nil {
			cfg.Serial.EnableUBX = b
		}
	}

	// ---------------------------------------------------------------------------
	// SYNC - Clock correlation configuration
	// ---------------------------------------------------------------------------
	if interval := os.Getenv("SYNC_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Sync.Interval = d
		}
	}
	if maxAge := os.Getenv("SYNC_MAX_REFERENCE_AGE"); maxAge != "" {
		if d, err := time.ParseDuration(maxAge); err == nil {
			cfg.Sync.MaxReferenceAge = d
		}
	}

	// ---------------------------------------------------------------------------
	// NTP_CHECK - Cross-check NTP client configuration
	// ---------------------------------------------------------------------------
	if enabled := os.Getenv("NTP_CHECK_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			cfg.NTPCheck.Enabled = b
		}
	}
	if servers := os.Getenv("NTP_CHECK_SERVERS"); servers != "" {
		cfg.NTPCheck.Servers = parseCommaSeparated(servers)
	}
	if interval := os.Getenv("NTP_CHECK_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.NTPCheck.Interval = d
		}
	}
	if timeout := os.Getenv("NTP_CHECK_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.NTPCheck.Timeout = d
		}
	}
	if version := os.Getenv("NTP_CHECK_VERSION"); version != "" {
		if v, err := strconv.Atoi(version); err == nil {
			cfg.NTPCheck.Version = v
		}
	}
	if divergence := os.Getenv("NTP_CHECK_MAX_DIVERGENCE"); divergence != "" {
		if d, err := time.ParseDuration(divergence); err == nil {
			cfg.NTPCheck.MaxDivergence = d
		}
	}
	if rate := os.Getenv("NTP_CHECK_RATE_LIMIT"); rate != "" {
		if r, err := strconv.Atoi(rate); err == nil {
			cfg.NTPCheck.RateLimit.QueriesPerMinute = r
		}
	}
	if burst := os.Getenv("NTP_CHECK_BURST_SIZE"); burst != "" {
		if b, err := strconv.Atoi(burst); err == nil {
			cfg.NTPCheck.RateLimit.BurstSize = b
		}
	}
	if maxRequests := os.Getenv("NTP_CHECK_CB_MAX_REQUESTS"); maxRequests != "" {
		if r, err := strconv.ParseUint(maxRequests, 10, 32); err == nil {
			cfg.NTPCheck.CircuitBreaker.MaxRequests = uint32(r)
		}
	}
	if cbInterval := os.Getenv("NTP_CHECK_CB_INTERVAL"); cbInterval != "" {
		if d, err := time.ParseDuration(cbInterval); err == nil {
			cfg.NTPCheck.CircuitBreaker.Interval = d
		}
	}
	if cbTimeout := os.Getenv("NTP_CHECK_CB_TIMEOUT"); cbTimeout != "" {
		if d, err := time.ParseDuration(cbTimeout); err == nil {
			cfg.NTPCheck.CircuitBreaker.Timeout = d
		}
	}
	if threshold := os.Getenv("NTP_CHECK_CB_FAILURE_THRESHOLD"); threshold != "" {
		if f, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.NTPCheck.CircuitBreaker.FailureThreshold = f
		}
	}

	// ---------------------------------------------------------------------------
	// SERVER - HTTP server configuration
	// ---------------------------------------------------------------------------
	if addr := os.Getenv("GNSS_TIMESYNC_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if port := os.Getenv("GNSS_TIMESYNC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if readTimeout := os.Getenv("SERVER_READ_TIMEOUT"); readTimeout != "" {
		if t, err := time.ParseDuration(readTimeout); err == nil {
			cfg.Server.ReadTimeout = t
		}
	}
	if writeTimeout := os.Getenv("SERVER_WRITE_TIMEOUT"); writeTimeout != "" {
		if t, err := time.ParseDuration(writeTimeout); err == nil {
			cfg.Server.WriteTimeout = t
		}
	}

	// ---------------------------------------------------------------------------
	// LOGGING - Logging configuration
	// ---------------------------------------------------------------------------
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if enableFile := os.Getenv("LOG_ENABLE_FILE"); enableFile != "" {
		if b, err := strconv.ParseBool(enableFile); err == nil {
			cfg.Logging.EnableFile = b
		}
	}
	if filePath := os.Getenv("LOG_FILE_PATH"); filePath != "" {
		cfg.Logging.FilePath = filePath
	}

	// ---------------------------------------------------------------------------
	// METRICS - Prometheus metrics configuration
	// ---------------------------------------------------------------------------
	if namespace := os.Getenv("METRICS_NAMESPACE"); namespace != "" {
		cfg.Metrics.Namespace = namespace
	}
	if subsystem := os.Getenv("METRICS_SUBSYSTEM"); subsystem != "" {
		cfg.Metrics.Subsystem = subsystem
	}
}

// parseCommaSeparated splits a comma-separated string
func parseCommaSeparated(s string) []string {
	var result []string
	for _, item := range splitByComma(s) {
		if trimmed := trim(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// splitByComma splits a string by comma delimiters.
// This is a utility function for parsing comma-separated values.
func splitByComma(s string) []string {
	var parts []string
	current := ""
	for _, char := range s {
		if char == ',' {
			parts = append(parts, current)
			current = ""
		} else {
			current += string(char)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}

// trim removes leading and trailing whitespace characters from a string.
// Handles spaces, tabs, and newlines.
func trim(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n') {
		end--
	}
	return s[start:end]
}

package config

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Standard UART baud rates the termios layer can program.
var supportedBaudRates = map[int]bool{
	4800:   true,
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if err := validateSerial(&cfg.Serial); err != nil {
		return err
	}

	if err := validateSync(&cfg.Sync); err != nil {
		return err
	}

	if err := validateNTPCheck(&cfg.NTPCheck); err != nil {
		return err
	}

	if err := validateServer(&cfg.Server); err != nil {
		return err
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return err
	}

	if err := validateMetrics(&cfg.Metrics); err != nil {
		return err
	}

	return nil
}

func validateSerial(cfg *SerialConfig) error {
	if cfg.Device == "" {
		return errors.New("serial device is required")
	}

	if !strings.HasPrefix(cfg.Device, "/") {
		return errors.New("serial device must be an absolute path, got " + cfg.Device)
	}

	if !supportedBaudRates[cfg.BaudRate] {
		return errors.New("unsupported baud_rate " + strconv.Itoa(cfg.BaudRate) +
			" (must be 4800, 9600, 19200, 38400, 57600, or 115200)")
	}

	if cfg.ReadBufferSize < 16 || cfg.ReadBufferSize > 4096 {
		return errors.New("read_buffer_size must be between 16 and 4096, got " + strconv.Itoa(cfg.ReadBufferSize))
	}

	return nil
}

func validateSync(cfg *SyncConfig) error {
	if cfg.Interval < 1*time.Second || cfg.Interval > 10*time.Minute {
		return errors.New("sync interval must be between 1s and 10m")
	}

	if cfg.MaxReferenceAge < cfg.Interval {
		return errors.New("max_reference_age must be at least the sync interval")
	}

	return nil
}

func validateNTPCheck(cfg *NTPCheckConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if len(cfg.Servers) == 0 {
		return errors.New("at least one NTP server must be configured when ntp_check is enabled")
	}

	if cfg.Timeout < 1*time.Second || cfg.Timeout > 60*time.Second {
		return errors.New("ntp_check timeout must be between 1s and 60s")
	}

	if cfg.Version < 2 || cfg.Version > 4 {
		return errors.New("ntp version must be 2, 3, or 4, got " + strconv.Itoa(cfg.Version))
	}

	if cfg.Interval < 30*time.Second {
		return errors.New("ntp_check interval must be at least 30s")
	}

	if cfg.MaxDivergence <= 0 {
		return errors.New("max_divergence must be positive")
	}

	if cfg.RateLimit.QueriesPerMinute < 1 {
		return errors.New("rate_limit.queries_per_minute must be at least 1")
	}
	if cfg.RateLimit.BurstSize < 1 {
		return errors.New("rate_limit.burst_size must be at least 1")
	}

	if cfg.CircuitBreaker.FailureThreshold <= 0 || cfg.CircuitBreaker.FailureThreshold > 1 {
		return errors.New("circuit_breaker.failure_threshold must be in (0, 1]")
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New("port must be between 1 and 65535, got " + strconv.Itoa(cfg.Port))
	}

	if cfg.ReadTimeout < 1*time.Second || cfg.ReadTimeout > 60*time.Second {
		return errors.New("read_timeout must be between 1s and 60s")
	}

	if cfg.WriteTimeout < 1*time.Second || cfg.WriteTimeout > 60*time.Second {
		return errors.New("write_timeout must be between 1s and 60s")
	}

	return nil
}

func validateLogging(cfg *LoggingConfig) error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLevels[cfg.Level] {
		return errors.New("invalid log level (must be trace, debug, info, warn, error, fatal, or panic)")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[cfg.Format] {
		return errors.New("invalid log format (must be json or console)")
	}

	if cfg.EnableFile && cfg.FilePath == "" {
		return errors.New("file_path is required when enable_file is true")
	}

	return nil
}

func validateMetrics(cfg *MetricsConfig) error {
	if cfg.Namespace == "" {
		return errors.New("namespace is required")
	}

	return nil
}

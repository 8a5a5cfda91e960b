package config

import "time"

// ApplyDefaults sets default values for unspecified configuration fields
func ApplyDefaults(cfg *Config) {
	// Serial defaults
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyAMA0"
	}
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 9600
	}
	if cfg.Serial.ReadBufferSize == 0 {
		cfg.Serial.ReadBufferSize = 128
	}

	// Sync defaults
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 10 * time.Second
	}
	if cfg.Sync.MaxReferenceAge == 0 {
		cfg.Sync.MaxReferenceAge = 60 * time.Second
	}

	// NTP cross-check defaults (disabled by default, the GNSS receiver is
	// the time source of record)
	if len(cfg.NTPCheck.Servers) == 0 {
		cfg.NTPCheck.Servers = []string{
			"pool.ntp.org",
			"time.google.com",
		}
	}
	if cfg.NTPCheck.Interval == 0 {
		cfg.NTPCheck.Interval = 5 * time.Minute
	}
	if cfg.NTPCheck.Timeout == 0 {
		cfg.NTPCheck.Timeout = 5 * time.Second
	}
	if cfg.NTPCheck.Version == 0 {
		cfg.NTPCheck.Version = 4
	}
	if cfg.NTPCheck.MaxDivergence == 0 {
		cfg.NTPCheck.MaxDivergence = 500 * time.Millisecond
	}

	// Rate limiting defaults
	if cfg.NTPCheck.RateLimit.QueriesPerMinute == 0 {
		cfg.NTPCheck.RateLimit.QueriesPerMinute = 60
	}
	if cfg.NTPCheck.RateLimit.BurstSize == 0 {
		cfg.NTPCheck.RateLimit.BurstSize = 5
	}

	// Circuit breaker defaults
	if cfg.NTPCheck.CircuitBreaker.MaxRequests == 0 {
		cfg.NTPCheck.CircuitBreaker.MaxRequests = 3
	}
	if cfg.NTPCheck.CircuitBreaker.Interval == 0 {
		cfg.NTPCheck.CircuitBreaker.Interval = 60 * time.Second
	}
	if cfg.NTPCheck.CircuitBreaker.Timeout == 0 {
		cfg.NTPCheck.CircuitBreaker.Timeout = 30 * time.Second
	}
	if cfg.NTPCheck.CircuitBreaker.FailureThreshold == 0 {
		cfg.NTPCheck.CircuitBreaker.FailureThreshold = 0.6 // 60%
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9101
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "gnss"
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = "timesync"
	}
	if cfg.Metrics.Labels == nil {
		cfg.Metrics.Labels = make(map[string]string)
	}
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

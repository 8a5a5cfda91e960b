package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()

	err := Validate(cfg)

	assert.NoError(t, err)
}

func TestValidateSerial(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SerialConfig
		wantErr string
	}{
		{
			name: "valid",
			cfg:  SerialConfig{Device: "/dev/ttyAMA0", BaudRate: 9600, ReadBufferSize: 128},
		},
		{
			name:    "missing_device",
			cfg:     SerialConfig{BaudRate: 9600, ReadBufferSize: 128},
			wantErr: "device is required",
		},
		{
			name:    "relative_device_path",
			cfg:     SerialConfig{Device: "ttyAMA0", BaudRate: 9600, ReadBufferSize: 128},
			wantErr: "absolute path",
		},
		{
			name:    "unsupported_baud_rate",
			cfg:     SerialConfig{Device: "/dev/ttyAMA0", BaudRate: 1234, ReadBufferSize: 128},
			wantErr: "baud_rate",
		},
		{
			name:    "buffer_too_small",
			cfg:     SerialConfig{Device: "/dev/ttyAMA0", BaudRate: 9600, ReadBufferSize: 8},
			wantErr: "read_buffer_size",
		},
		{
			name:    "buffer_too_large",
			cfg:     SerialConfig{Device: "/dev/ttyAMA0", BaudRate: 9600, ReadBufferSize: 8192},
			wantErr: "read_buffer_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSerial(&tt.cfg)

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateSync(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SyncConfig
		wantErr bool
	}{
		{"valid", SyncConfig{Interval: 10 * time.Second, MaxReferenceAge: 60 * time.Second}, false},
		{"interval_too_short", SyncConfig{Interval: 100 * time.Millisecond, MaxReferenceAge: 60 * time.Second}, true},
		{"interval_too_long", SyncConfig{Interval: 11 * time.Minute, MaxReferenceAge: 20 * time.Minute}, true},
		{"age_below_interval", SyncConfig{Interval: 30 * time.Second, MaxReferenceAge: 10 * time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSync(&tt.cfg)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNTPCheck(t *testing.T) {
	valid := NTPCheckConfig{
		Enabled:       true,
		Servers:       []string{"pool.ntp.org"},
		Interval:      5 * time.Minute,
		Timeout:       5 * time.Second,
		Version:       4,
		MaxDivergence: 500 * time.Millisecond,
		RateLimit:     RateLimitConfig{QueriesPerMinute: 60, BurstSize: 5},
		CircuitBreaker: CircuitBreakerConfig{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 0.6,
		},
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid
		assert.NoError(t, validateNTPCheck(&cfg))
	})

	t.Run("disabled_skips_checks", func(t *testing.T) {
		cfg := NTPCheckConfig{Enabled: false}
		assert.NoError(t, validateNTPCheck(&cfg))
	})

	t.Run("no_servers", func(t *testing.T) {
		cfg := valid
		cfg.Servers = nil
		assert.Error(t, validateNTPCheck(&cfg))
	})

	t.Run("bad_version", func(t *testing.T) {
		cfg := valid
		cfg.Version = 1
		assert.Error(t, validateNTPCheck(&cfg))
	})

	t.Run("interval_too_short", func(t *testing.T) {
		cfg := valid
		cfg.Interval = 5 * time.Second
		assert.Error(t, validateNTPCheck(&cfg))
	})

	t.Run("bad_failure_threshold", func(t *testing.T) {
		cfg := valid
		cfg.CircuitBreaker.FailureThreshold = 1.5
		assert.Error(t, validateNTPCheck(&cfg))
	})
}

func TestValidateServer_Port(t *testing.T) {
	tests := []struct {
		name string
		port int
		want bool
	}{
		{"minimum_port", 1, true},
		{"standard_port", 9101, true},
		{"maximum_port", 65535, true},
		{"zero_port", 0, false},
		{"negative_port", -1, false},
		{"too_high_port", 65536, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ServerConfig{
				Port:         tt.port,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
			}

			err := validateServer(cfg)

			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "port")
			}
		})
	}
}

func TestValidateLogging(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"valid_json", LoggingConfig{Level: "info", Format: "json"}, false},
		{"valid_console", LoggingConfig{Level: "debug", Format: "console"}, false},
		{"bad_level", LoggingConfig{Level: "verbose", Format: "json"}, true},
		{"bad_format", LoggingConfig{Level: "info", Format: "xml"}, true},
		{"file_without_path", LoggingConfig{Level: "info", Format: "json", EnableFile: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLogging(&tt.cfg)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMetrics(t *testing.T) {
	assert.NoError(t, validateMetrics(&MetricsConfig{Namespace: "gnss"}))
	assert.Error(t, validateMetrics(&MetricsConfig{}))
}

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/batuhanky/gnss-timesync/internal/config"
	"github.com/batuhanky/gnss-timesync/internal/daemon"
	"github.com/batuhanky/gnss-timesync/pkg/metrics"
)

func TestLoadConfig_FromFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configFile := tmpDir + "/test-config.yaml"

	configContent := `
server:
  port: 9559
serial:
  device: /dev/ttyUSB0
logging:
  level: info
`
	err := os.WriteFile(configFile, []byte(configContent), 0644)
	assert.NoError(t, err)

	cfg, err := loadConfig(configFile)
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 9559, cfg.Server.Port)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	// Test with empty file (loads from env)
	cfg, err := loadConfig("")
	assert.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestStatusFunc_BeforeFirstFix(t *testing.T) {
	cfg := config.DefaultConfig()
	d := daemon.New(cfg, nil, nil, nil)

	snap := statusFunc(d)()
	assert.False(t, snap.ReferenceValid)
	assert.Equal(t, "none", snap.LastTransition)
	assert.Empty(t, snap.UTC)
	assert.False(t, snap.PositionValid)
}

func TestNewChecker(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NTPCheck.Enabled = true

	d := daemon.New(cfg, nil, nil, nil)
	m := metrics.NewSyncMetrics()

	checker := newChecker(cfg, d, m)
	assert.NotNil(t, checker)
}

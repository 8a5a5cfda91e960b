package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/batuhanky/gnss-timesync/internal/config"
	"github.com/batuhanky/gnss-timesync/internal/daemon"
	"github.com/batuhanky/gnss-timesync/internal/ntpcheck"
	"github.com/batuhanky/gnss-timesync/internal/serialport"
	"github.com/batuhanky/gnss-timesync/internal/server"
	"github.com/batuhanky/gnss-timesync/pkg/logger"
	"github.com/batuhanky/gnss-timesync/pkg/metrics"
)

var (
	// Build information
	version = "dev"
)

func main() {
	// Parse command-line flags
	configFile := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		// Use println for version output (user-facing, not logging)
		println("gnss-timesync version", version)
		os.Exit(0)
	}

	// Load configuration (before logger is initialized)
	cfg, err := loadConfig(*configFile)
	if err != nil {
		// Cannot use logger yet, write to stderr
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitLogger(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		Component:  "gnss-timesync",
		EnableFile: cfg.Logging.EnableFile,
	}); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Log startup information
	logger.Startup(version, cfg)

	// Create metrics registry with custom namespace and subsystem from config
	registry := metrics.NewRegistryWithConfig(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	if err := registry.Register(); err != nil {
		logger.Fatal("main", "Failed to register metrics", err)
	}

	// Get metrics instance
	m := registry.GetMetrics()

	// Set build info metric
	m.BuildInfo.WithLabelValues(version, runtime.Version()).Set(1)

	// Open the GNSS receiver serial port
	port, err := serialport.Open(cfg.Serial.Device, cfg.Serial.BaudRate)
	if err != nil {
		logger.Fatal("main", "Failed to open serial port", err)
	}

	// Ask the receiver for NAV-TIMEGPS frames when UBX decoding is enabled
	if cfg.Serial.EnableUBX {
		if err := port.EnableNavTimeGPS(); err != nil {
			logger.Error("main", "Failed to enable NAV-TIMEGPS output", err)
		}
	}

	d := daemon.New(cfg, port, m, nil)
	d.SetReopen(func() (io.ReadWriteCloser, error) {
		p, err := serialport.Open(cfg.Serial.Device, cfg.Serial.BaudRate)
		if err != nil {
			return nil, err
		}
		if cfg.Serial.EnableUBX {
			if err := p.EnableNavTimeGPS(); err != nil {
				logger.Error("main", "Failed to enable NAV-TIMEGPS output", err)
			}
		}
		return p, nil
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start HTTP server
	srv := server.New(cfg, registry.GetRegistry(), statusFunc(d))
	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Start(ctx)
	}()

	// Start the receiver sync loop
	daemonErrChan := make(chan error, 1)
	go func() {
		daemonErrChan <- d.Run(ctx)
	}()

	// Start NTP cross-checking when enabled
	if cfg.NTPCheck.Enabled {
		checker := newChecker(cfg, d, m)
		go checker.Run(ctx)
		logger.InfoFields("main", "NTP cross-check enabled", map[string]interface{}{
			"servers":  cfg.NTPCheck.Servers,
			"interval": cfg.NTPCheck.Interval,
		})
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.InfoFields("main", "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	case err := <-serverErrChan:
		if err != nil {
			logger.Error("main", "Server error", err)
		}
		cancel()
	case err := <-daemonErrChan:
		if err != nil {
			logger.Error("main", "Sync loop error", err)
		}
		cancel()
	}

	// Closing the port unblocks the sync loop read in flight
	if err := d.ClosePort(); err != nil {
		logger.Error("main", "Serial port close error", err)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main", "Server shutdown error", err)
	}

	logger.Shutdown("graceful")
}

// loadConfig loads configuration based on whether a config file is specified
func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		// Load from YAML file with environment variable overrides
		// Priority: Environment Variables > YAML File > Defaults
		return config.LoadFromYamlWithEnvOverrides(configFile)
	}
	// No config file specified, use environment variables only
	// Priority: Environment Variables > Defaults
	return config.LoadFromEnvVarsOnly()
}

// statusFunc adapts the daemon snapshot to the HTTP status payload.
func statusFunc(d *daemon.Daemon) server.StatusFunc {
	return func() server.StatusSnapshot {
		snap := d.Status()
		out := server.StatusSnapshot{
			ReferenceValid:  snap.ReferenceValid,
			ReferenceAgeSec: snap.ReferenceAgeSec,
			DriftPPM:        snap.DriftPPM,
			LastTransition:  snap.LastTransition,
			DecodeCounts:    snap.DecodeCounts,
			PositionValid:   snap.PositionValid,
			Latitude:        snap.Latitude,
			Longitude:       snap.Longitude,
			Altitude:        snap.Altitude,
			Satellites:      snap.Satellites,
		}
		if !snap.UTC.IsZero() {
			out.UTC = snap.UTC.Format(time.RFC3339Nano)
		}
		return out
	}
}

// newChecker builds the NTP divergence checker from the configuration,
// wrapping the rate-limited client in per-server circuit breakers.
func newChecker(cfg *config.Config, d *daemon.Daemon, m *metrics.SyncMetrics) *ntpcheck.Checker {
	client := ntpcheck.NewClientWithRateLimit(
		cfg.NTPCheck.Timeout,
		cfg.NTPCheck.Version,
		cfg.NTPCheck.RateLimit.QueriesPerMinute,
		cfg.NTPCheck.RateLimit.BurstSize,
	)
	breaker := ntpcheck.NewCircuitBreakerClient(client, ntpcheck.NewCircuitBreakerConfigWithThreshold(
		cfg.NTPCheck.CircuitBreaker.MaxRequests,
		cfg.NTPCheck.CircuitBreaker.Interval,
		cfg.NTPCheck.CircuitBreaker.Timeout,
		cfg.NTPCheck.CircuitBreaker.FailureThreshold,
	))
	return ntpcheck.NewChecker(
		breaker,
		d.UTCNow,
		cfg.NTPCheck.Servers,
		cfg.NTPCheck.Interval,
		cfg.NTPCheck.MaxDivergence,
		m,
	)
}

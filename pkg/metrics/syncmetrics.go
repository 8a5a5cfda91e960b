package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics encapsulates all time synchronization metrics
type SyncMetrics struct {
	// Decode Metrics
	DecodedMessagesTotal *prometheus.CounterVec
	DecodeDuration       *prometheus.HistogramVec

	// GNSS Fix Metrics
	FixValid          prometheus.Gauge
	SatellitesVisible prometheus.Gauge
	AltitudeMeters    prometheus.Gauge

	// Correlation Metrics
	SyncTransitionsTotal *prometheus.CounterVec
	AberrantStrikes      prometheus.Gauge
	DriftPPM             prometheus.Gauge
	ReferenceValid       prometheus.Gauge
	ReferenceAgeSeconds  prometheus.Gauge
	CounterValue         prometheus.Gauge

	// Serial Link Metrics
	SerialBytesReadTotal  prometheus.Counter
	SerialReadErrorsTotal prometheus.Counter
	SerialReopensTotal    prometheus.Counter

	// NTP Cross-Check Metrics
	NTPDivergenceSeconds  *prometheus.GaugeVec
	NTPDivergenceExceeded *prometheus.GaugeVec
	NTPCheckFailuresTotal *prometheus.CounterVec

	// Operational Metrics
	BuildInfo *prometheus.GaugeVec
}

// NewSyncMetricsWithConfig creates and initializes all metrics with custom namespace and subsystem
func NewSyncMetricsWithConfig(namespace, subsystem string) *SyncMetrics {
	return &SyncMetrics{
		// Decode Metrics
		DecodedMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decoded_messages_total",
				Help:      "Messages processed by the frame decoders, by protocol and outcome",
			},
			[]string{"protocol", "result"},
		),
		DecodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decode_duration_seconds",
				Help:      "Frame decode duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 8),
			},
			[]string{"protocol"},
		),

		// GNSS Fix Metrics
		FixValid: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "fix_valid",
				Help:      "Whether the receiver currently reports a usable time fix (1) or not (0)",
			},
		),
		SatellitesVisible: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "satellites_visible",
				Help:      "Satellites used in the last position fix",
			},
		),
		AltitudeMeters: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "altitude_meters",
				Help:      "Altitude of the last position fix in meters",
			},
		),

		// Correlation Metrics
		SyncTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sync_transitions_total",
				Help:      "Clock correlation updates by outcome (accepted, reset, rejected)",
			},
			[]string{"transition"},
		),
		AberrantStrikes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aberrant_strikes",
				Help:      "Consecutive aberrant correlation samples seen so far",
			},
		),
		DriftPPM: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "drift_ppm",
				Help:      "Estimated local oscillator drift against GNSS time in parts per million",
			},
		),
		ReferenceValid: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reference_valid",
				Help:      "Whether the time reference is usable for conversions (1) or not (0)",
			},
		),
		ReferenceAgeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reference_age_seconds",
				Help:      "Seconds since the time reference was last updated",
			},
		),
		CounterValue: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "counter_value",
				Help:      "Concentrator counter value latched at the last correlation update",
			},
		),

		// Serial Link Metrics
		SerialBytesReadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "serial_bytes_read_total",
				Help:      "Bytes read from the GNSS receiver serial port",
			},
		),
		SerialReadErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "serial_read_errors_total",
				Help:      "Serial port read failures",
			},
		),
		SerialReopensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "serial_reopens_total",
				Help:      "Times the serial port was reopened after a failure",
			},
		),

		// NTP Cross-Check Metrics
		NTPDivergenceSeconds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ntp_divergence_seconds",
				Help:      "Difference between GNSS-disciplined UTC and the NTP server clock in seconds",
			},
			[]string{"server"},
		),
		NTPDivergenceExceeded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ntp_divergence_exceeded",
				Help:      "Whether the GNSS/NTP divergence exceeds the configured threshold (1 = exceeded, 0 = within limits)",
			},
			[]string{"server"},
		),
		NTPCheckFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ntp_check_failures_total",
				Help:      "Failed NTP cross-check queries by server and reason",
			},
			[]string{"server", "reason"},
		),

		// Operational Metrics
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "build_info",
				Help:      "Build information (always 1)",
			},
			[]string{"version", "go_version"},
		),
	}
}

// NewSyncMetrics creates metrics with the default namespace "gnss" and subsystem "timesync"
func NewSyncMetrics() *SyncMetrics {
	return NewSyncMetricsWithConfig("gnss", "timesync")
}

// getAllMetrics returns all metrics as a slice for bulk operations
func (m *SyncMetrics) getAllMetrics() []prometheus.Collector {
	return []prometheus.Collector{
		m.DecodedMessagesTotal,
		m.DecodeDuration,
		m.FixValid,
		m.SatellitesVisible,
		m.AltitudeMeters,
		m.SyncTransitionsTotal,
		m.AberrantStrikes,
		m.DriftPPM,
		m.ReferenceValid,
		m.ReferenceAgeSeconds,
		m.CounterValue,
		m.SerialBytesReadTotal,
		m.SerialReadErrorsTotal,
		m.SerialReopensTotal,
		m.NTPDivergenceSeconds,
		m.NTPDivergenceExceeded,
		m.NTPCheckFailuresTotal,
		m.BuildInfo,
	}
}

// Describe implements prometheus.Collector interface
func (m *SyncMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, metric := range m.getAllMetrics() {
		metric.Describe(ch)
	}
}

// Collect implements prometheus.Collector interface
func (m *SyncMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, metric := range m.getAllMetrics() {
		metric.Collect(ch)
	}
}

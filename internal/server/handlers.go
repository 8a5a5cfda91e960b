package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/batuhanky/gnss-timesync/internal/config"
	"github.com/batuhanky/gnss-timesync/pkg/logger"
)

// StatusSnapshot is the /status response body: the current state of the
// time reference and the last decoded fix.
type StatusSnapshot struct {
	Service         string  `json:"service"`
	ReferenceValid  bool    `json:"reference_valid"`
	ReferenceAgeSec float64 `json:"reference_age_seconds"`
	DriftPPM        float64 `json:"drift_ppm"`
	LastTransition  string  `json:"last_transition"`
	UTC             string  `json:"utc,omitempty"`

	DecodeCounts map[string]uint64 `json:"decode_counts,omitempty"`

	PositionValid bool    `json:"position_valid"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      int     `json:"altitude"`
	Satellites    int     `json:"satellites"`
}

// StatusFunc produces the current status snapshot.
type StatusFunc func() StatusSnapshot

// Handlers contains HTTP request handlers
type Handlers struct {
	config   *config.Config
	registry *prometheus.Registry
	statusFn StatusFunc
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config, registry *prometheus.Registry, statusFn StatusFunc) *Handlers {
	return &Handlers{
		config:   cfg,
		registry: registry,
		statusFn: statusFn,
	}
}

// MetricsHandler serves Prometheus metrics
func (h *Handlers) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	handler := promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{
		ErrorLog:      &loggerAdapter{},
		ErrorHandling: promhttp.ContinueOnError,
	})

	handler.ServeHTTP(w, r)
}

// HealthHandler returns health status
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := `{"status":"healthy","service":"gnss-timesync"}`
	w.Write([]byte(response))
}

// StatusHandler returns the current time reference and fix state as JSON
func (h *Handlers) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if h.statusFn == nil {
		http.Error(w, "status not available", http.StatusServiceUnavailable)
		return
	}

	snapshot := h.statusFn()
	snapshot.Service = "gnss-timesync"

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		logger.Error("server", "Failed to encode status response", err)
	}
}

// IndexHandler serves the index page
func (h *Handlers) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	html := `<!DOCTYPE html>
<html>
<head>
    <title>GNSS Timesync</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        ul { list-style-type: none; padding: 0; }
        li { margin: 10px 0; }
        a { color: #0066cc; text-decoration: none; }
        a:hover { text-decoration: underline; }
        .info { background-color: #f0f0f0; padding: 15px; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>GNSS Timesync</h1>
    <div class="info">
        <h2>Available Endpoints:</h2>
        <ul>
            <li><a href="/metrics">/metrics</a> - Prometheus metrics</li>
            <li><a href="/health">/health</a> - Health check</li>
            <li><a href="/status">/status</a> - Time reference snapshot</li>
        </ul>
        <h2>Configuration:</h2>
        <ul>
            <li>Receiver: ` + h.config.Serial.Device + ` @ ` + strconv.Itoa(h.config.Serial.BaudRate) + ` baud</li>
            <li>Sync interval: ` + h.config.Sync.Interval.String() + `</li>
            <li>NTP cross-check: ` + strconv.FormatBool(h.config.NTPCheck.Enabled) + `</li>
        </ul>
    </div>
</body>
</html>`

	w.Write([]byte(html))
}

// loggerAdapter adapts pkg/logger to promhttp logger interface
type loggerAdapter struct{}

func (l *loggerAdapter) Println(v ...interface{}) {
	// Convert v to string without fmt
	msg := ""
	for i, val := range v {
		if i > 0 {
			msg += " "
		}
		if s, ok := val.(string); ok {
			msg += s
		} else if err, ok := val.(error); ok {
			msg += err.Error()
		}
	}
	logger.Error("promhttp", msg, nil)
}

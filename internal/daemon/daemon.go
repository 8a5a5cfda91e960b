// Package daemon wires the serial byte stream, the frame decoders and the
// clock correlation engine into the long-running sync loop, and exposes the
// resulting time reference to the HTTP and NTP cross-check layers.
package daemon

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/batuhanky/gnss-timesync/internal/config"
	"github.com/batuhanky/gnss-timesync/internal/gnss"
	"github.com/batuhanky/gnss-timesync/internal/serialport"
	"github.com/batuhanky/gnss-timesync/internal/timesync"
	"github.com/batuhanky/gnss-timesync/pkg/logger"
	"github.com/batuhanky/gnss-timesync/pkg/mathutil"
	"github.com/batuhanky/gnss-timesync/pkg/metrics"
)

// ErrReferenceStale is returned by UTCNow when the last accepted sync is
// older than the configured maximum reference age.
var ErrReferenceStale = errors.New("time reference is stale")

// CounterSource returns the current value of the free-running 1 MHz 32-bit
// counter that timestamps received frames. It wraps roughly every 72
// minutes.
type CounterSource func() uint32

// MonotonicCounter derives the counter from the Go monotonic clock,
// for deployments without concentrator hardware attached.
func MonotonicCounter() CounterSource {
	start := time.Now()
	return func() uint32 {
		return uint32(int64(time.Since(start) / time.Microsecond))
	}
}

// Snapshot is a point-in-time view of the daemon state.
type Snapshot struct {
	ReferenceValid  bool
	ReferenceAgeSec float64
	DriftPPM        float64
	LastTransition  string
	UTC             time.Time

	PositionValid bool
	Latitude      float64
	Longitude     float64
	Altitude      int
	Satellites    int

	// DecodeCounts maps decode classification to how many frames landed
	// in it since startup.
	DecodeCounts map[string]uint64
}

// ReopenFunc reopens the serial device after a read failure. Nil disables
// reopening and a read failure stops the loop.
type ReopenFunc func() (io.ReadWriteCloser, error)

// Daemon runs the receiver read loop and owns the time reference.
type Daemon struct {
	cfg     *config.Config
	portMu  sync.Mutex
	port    io.ReadWriteCloser
	reopen  ReopenFunc
	framer  *serialport.Framer
	parser  *gnss.Parser
	engine  *timesync.Engine
	metrics *metrics.SyncMetrics
	counter CounterSource
	now     func() time.Time

	// Throttles invalid-frame warnings so a noisy line cannot flood the
	// log. Decode results are still counted per frame in the metrics.
	badFrameLog *rate.Limiter

	mu             sync.RWMutex
	ref            timesync.Reference
	bootstrapped   bool
	strikes        int
	lastTransition string
	lastSyncAt     time.Time
	lastPosition   gnss.Coordinates
	positionValid  bool
	satellites     int
	decodeCounts   map[string]uint64
}

// New creates a daemon around an open port. m may be nil when no metrics
// exporter is wired in; counter may be nil to use the monotonic clock.
func New(cfg *config.Config, port io.ReadWriteCloser, m *metrics.SyncMetrics, counter CounterSource) *Daemon {
	if counter == nil {
		counter = MonotonicCounter()
	}
	return &Daemon{
		cfg:            cfg,
		port:           port,
		framer:         serialport.NewFramer(),
		parser:         gnss.NewParser(),
		engine:         timesync.NewEngine(),
		metrics:        m,
		counter:        counter,
		now:            time.Now,
		badFrameLog:    rate.NewLimiter(rate.Every(time.Second), 5),
		lastTransition: "none",
		decodeCounts:   make(map[string]uint64),
	}
}

// SetReopen installs a callback used to reopen the serial device after a
// read failure. Must be called before Run.
func (d *Daemon) SetReopen(fn ReopenFunc) {
	d.reopen = fn
}

// ClosePort closes the currently open port, unblocking a read in flight
// during shutdown.
func (d *Daemon) ClosePort() error {
	d.portMu.Lock()
	defer d.portMu.Unlock()
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// Run reads receiver bytes until the context is cancelled or the port
// fails. Cancellation is detected between reads; the caller closes the port
// to unblock a read in flight.
func (d *Daemon) Run(ctx context.Context) error {
	buf := make([]byte, d.cfg.Serial.ReadBufferSize)

	for {
		if ctx.Err() != nil {
			logger.Info("daemon", "Sync loop stopped")
			return nil
		}

		d.portMu.Lock()
		port := d.port
		d.portMu.Unlock()

		n, err := port.Read(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				logger.Info("daemon", "Sync loop stopped")
				return nil
			}
			if d.metrics != nil {
				d.metrics.SerialReadErrorsTotal.Inc()
			}
			logger.Error("daemon", "Serial read failed", err)
			if d.reopen == nil {
				return err
			}
			if rerr := d.reopenPort(); rerr != nil {
				return err
			}
			continue
		}
		if n == 0 {
			continue
		}

		if d.metrics != nil {
			d.metrics.SerialBytesReadTotal.Add(float64(n))
		}

		for _, frame := range d.framer.Push(buf[:n]) {
			d.processFrame(frame)
		}
		d.refreshAge()
	}
}

// reopenPort swaps in a fresh port after a read failure. The framer is
// reset so a torn frame from the dead port cannot confuse the new stream.
func (d *Daemon) reopenPort() error {
	d.portMu.Lock()
	_ = d.port.Close()
	d.portMu.Unlock()

	port, err := d.reopen()
	if err != nil {
		logger.Error("daemon", "Serial reopen failed", err)
		return err
	}

	d.portMu.Lock()
	d.port = port
	d.portMu.Unlock()
	d.framer = serialport.NewFramer()
	if d.metrics != nil {
		d.metrics.SerialReopensTotal.Inc()
	}
	logger.Info("daemon", "Serial port reopened")
	return nil
}

func (d *Daemon) processFrame(frame serialport.Frame) {
	start := d.now()

	var cls gnss.Classification
	switch frame.Protocol {
	case serialport.ProtocolUBX:
		cls, _ = d.parser.DecodeUBX(frame.Data)
	default:
		cls = d.parser.DecodeNMEA(frame.Data)
	}

	protocol := frame.Protocol.String()
	if d.metrics != nil {
		d.metrics.DecodedMessagesTotal.WithLabelValues(protocol, cls.String()).Inc()
		d.metrics.DecodeDuration.WithLabelValues(protocol).Observe(d.now().Sub(start).Seconds())
	}
	logger.Decode(protocol, cls.String(), len(frame.Data))
	if cls == gnss.Invalid && d.badFrameLog.Allow() {
		logger.WarnFields("daemon", "Dropped invalid frame", map[string]interface{}{
			"protocol": protocol,
			"size":     len(frame.Data),
		})
	}

	d.mu.Lock()
	d.decodeCounts[cls.String()]++
	d.mu.Unlock()

	switch cls {
	case gnss.TimeStatus, gnss.GPSTime:
		d.maybeSync()
	case gnss.Position:
		d.updatePosition()
	}
}

// maybeSync feeds the latest decoded fix into the correlation engine, no
// more often than the configured interval.
func (d *Daemon) maybeSync() {
	utc, err := d.parser.UTCTime()
	if err != nil {
		d.setFixValid(false)
		return
	}
	d.setFixValid(true)

	// GPS time is only available when NAV-TIMEGPS frames are enabled; a
	// zero timespec keeps the UTC side of the reference working alone.
	gps, err := d.parser.GPSTime()
	if err != nil {
		gps = timesync.Timespec{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if d.bootstrapped && now.Sub(d.lastSyncAt) < d.cfg.Sync.Interval {
		return
	}

	countUs := d.counter()

	if !d.bootstrapped {
		if err := d.engine.Bootstrap(&d.ref, countUs, utc, gps); err != nil {
			logger.Error("daemon", "Failed to seed time reference", err)
			return
		}
		d.bootstrapped = true
		d.strikes = 0
		d.lastTransition = "bootstrap"
		d.lastSyncAt = now
		logger.Sync("bootstrap", 0, countUs)
		d.publishReference()
		return
	}

	transition, err := d.engine.Sync(&d.ref, countUs, utc, gps)
	d.lastTransition = transition.String()
	d.lastSyncAt = now

	switch transition {
	case timesync.Rejected:
		d.strikes++
	default:
		d.strikes = 0
	}

	driftPPM := mathutil.RatioToPPM(d.ref.XtalErr)
	if err != nil {
		logger.WarnFields("daemon", "Correlation sample rejected", map[string]interface{}{
			"count_us": countUs,
			"strikes":  d.strikes,
		})
	} else {
		logger.Sync(transition.String(), driftPPM, countUs)
	}

	if d.metrics != nil {
		d.metrics.SyncTransitionsTotal.WithLabelValues(transition.String()).Inc()
		d.metrics.AberrantStrikes.Set(float64(d.strikes))
	}
	d.publishReference()
}

// publishReference pushes the reference state to the gauges. Caller holds
// d.mu.
func (d *Daemon) publishReference() {
	if d.metrics == nil {
		return
	}
	d.metrics.DriftPPM.Set(mathutil.RatioToPPM(d.ref.XtalErr))
	d.metrics.CounterValue.Set(float64(d.ref.CountUs))
	if d.ref.Usable() {
		d.metrics.ReferenceValid.Set(1)
	} else {
		d.metrics.ReferenceValid.Set(0)
	}
	d.metrics.ReferenceAgeSeconds.Set(0)
}

func (d *Daemon) refreshAge() {
	if d.metrics == nil {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.bootstrapped {
		d.metrics.ReferenceAgeSeconds.Set(d.now().Sub(d.lastSyncAt).Seconds())
	}
}

func (d *Daemon) setFixValid(valid bool) {
	if d.metrics == nil {
		return
	}
	if valid {
		d.metrics.FixValid.Set(1)
	} else {
		d.metrics.FixValid.Set(0)
	}
}

func (d *Daemon) updatePosition() {
	coords, err := d.parser.Position()
	raw := d.parser.RawPosition()

	d.mu.Lock()
	d.satellites = raw.Satellites
	if err == nil {
		d.lastPosition = coords
		d.positionValid = true
	} else {
		d.positionValid = false
	}
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.SatellitesVisible.Set(float64(raw.Satellites))
		if err == nil {
			d.metrics.AltitudeMeters.Set(float64(coords.Altitude))
		}
	}
}

// Reference returns a copy of the current time reference.
func (d *Daemon) Reference() timesync.Reference {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ref
}

// UTCNow converts the current counter value to GNSS-disciplined UTC. It
// fails while no usable reference exists.
func (d *Daemon) UTCNow() (time.Time, error) {
	d.mu.RLock()
	ref := d.ref
	stale := d.bootstrapped && d.now().Sub(d.lastSyncAt) > d.cfg.Sync.MaxReferenceAge
	d.mu.RUnlock()

	if stale {
		return time.Time{}, ErrReferenceStale
	}
	ts, err := timesync.CountToUTC(ref, d.counter())
	if err != nil {
		return time.Time{}, err
	}
	return ts.Time(), nil
}

// Status builds a point-in-time snapshot for the HTTP status endpoint.
func (d *Daemon) Status() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := make(map[string]uint64, len(d.decodeCounts))
	for cls, n := range d.decodeCounts {
		counts[cls] = n
	}

	snap := Snapshot{
		ReferenceValid: d.ref.Usable(),
		DriftPPM:       mathutil.RatioToPPM(d.ref.XtalErr),
		LastTransition: d.lastTransition,
		PositionValid:  d.positionValid,
		Satellites:     d.satellites,
		DecodeCounts:   counts,
	}
	if d.bootstrapped {
		snap.ReferenceAgeSec = d.now().Sub(d.lastSyncAt).Seconds()
	}
	if d.positionValid {
		snap.Latitude = d.lastPosition.Latitude
		snap.Longitude = d.lastPosition.Longitude
		snap.Altitude = d.lastPosition.Altitude
	}
	if ts, err := timesync.CountToUTC(d.ref, d.counter()); err == nil {
		snap.UTC = ts.Time()
	}
	return snap
}

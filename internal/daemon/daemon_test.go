package daemon

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batuhanky/gnss-timesync/internal/config"
	"github.com/batuhanky/gnss-timesync/internal/serialport"
	"github.com/batuhanky/gnss-timesync/pkg/metrics"
	"github.com/batuhanky/gnss-timesync/pkg/testutil"
)

const (
	rmcFirst  = "$GPRMC,083559.40,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A"
	rmcSecond = "$GPRMC,083619.40,A,4717.11437,N,00833.91522,E,0.004,77.52,091202,,,A"
	ggaValid  = "$GPGGA,092725.00,4717.11399,N,00833.91590,E,1,08,1.01,499.6,M,48.0,M,,*5B"
)

type testHarness struct {
	daemon   *Daemon
	registry *prometheus.Registry

	clock   time.Time
	counter uint32
}

func newTestHarness(t *testing.T, port io.ReadWriteCloser) *testHarness {
	t.Helper()

	cfg := &config.Config{
		Serial: config.SerialConfig{ReadBufferSize: 128},
		Sync: config.SyncConfig{
			Interval:        10 * time.Second,
			MaxReferenceAge: 60 * time.Second,
		},
	}

	m := metrics.NewSyncMetrics()
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(m))

	h := &testHarness{
		registry: registry,
		clock:    time.Date(2002, 12, 9, 8, 36, 0, 0, time.UTC),
		counter:  1_000_000,
	}
	h.daemon = New(cfg, port, m, func() uint32 { return h.counter })
	h.daemon.now = func() time.Time { return h.clock }
	return h
}

func (h *testHarness) feedNMEA(sentence string) {
	h.daemon.processFrame(serialport.Frame{
		Protocol: serialport.ProtocolNMEA,
		Data:     []byte(sentence),
	})
}

func (h *testHarness) feedSentence(body string) {
	h.feedNMEA(string(testutil.NMEASentence(body)))
}

func TestDaemonBootstrap(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedSentence(rmcFirst)

	snap := h.daemon.Status()
	assert.True(t, snap.ReferenceValid)
	assert.Equal(t, "bootstrap", snap.LastTransition)
	assert.Equal(t, uint64(1), snap.DecodeCounts["time_status"])

	want := time.Date(2002, 12, 9, 8, 35, 59, 400_000_000, time.UTC)
	assert.WithinDuration(t, want, snap.UTC, time.Millisecond)

	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_reference_valid", nil, 1)
}

func TestDaemonAcceptedSync(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedSentence(rmcFirst)

	// 20 s of UTC, 20 000 000 counter ticks: slope exactly 1.0.
	h.clock = h.clock.Add(15 * time.Second)
	h.counter += 20_000_000
	h.feedSentence(rmcSecond)

	snap := h.daemon.Status()
	assert.Equal(t, "accepted", snap.LastTransition)
	assert.True(t, snap.ReferenceValid)
	assert.InDelta(t, 0.0, snap.DriftPPM, 0.5)

	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_sync_transitions_total",
		map[string]string{"transition": "accepted"}, 1)
	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_aberrant_strikes", nil, 0)
}

func TestDaemonRejectedSampleKeepsReference(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedSentence(rmcFirst)
	before := h.daemon.Reference()

	// 20 s of UTC but only 10 s of counter: slope 0.5, far out of band.
	h.clock = h.clock.Add(15 * time.Second)
	h.counter += 10_000_000
	h.feedSentence(rmcSecond)

	snap := h.daemon.Status()
	assert.Equal(t, "rejected", snap.LastTransition)
	assert.True(t, snap.ReferenceValid)
	assert.Equal(t, before.CountUs, h.daemon.Reference().CountUs)

	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_sync_transitions_total",
		map[string]string{"transition": "rejected"}, 1)
	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_aberrant_strikes", nil, 1)
}

func TestDaemonSyncIntervalGate(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedSentence(rmcFirst)

	// Inside the sync interval the sample is dropped, not correlated.
	h.clock = h.clock.Add(2 * time.Second)
	h.counter += 20_000_000
	h.feedSentence(rmcSecond)

	assert.Equal(t, "bootstrap", h.daemon.Status().LastTransition)
}

func TestDaemonUTCNowBeforeBootstrap(t *testing.T) {
	h := newTestHarness(t, nil)

	_, err := h.daemon.UTCNow()
	assert.Error(t, err)
}

func TestDaemonUTCNowTracksCounter(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedSentence(rmcFirst)

	h.counter += 5_000_000
	got, err := h.daemon.UTCNow()
	require.NoError(t, err)

	want := time.Date(2002, 12, 9, 8, 36, 4, 400_000_000, time.UTC)
	assert.WithinDuration(t, want, got, time.Millisecond)
}

func TestDaemonUTCNowStaleReference(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedSentence(rmcFirst)

	h.clock = h.clock.Add(2 * time.Minute)
	_, err := h.daemon.UTCNow()
	assert.ErrorIs(t, err, ErrReferenceStale)
}

func TestDaemonPositionUpdate(t *testing.T) {
	h := newTestHarness(t, nil)

	h.feedNMEA(ggaValid)

	snap := h.daemon.Status()
	assert.True(t, snap.PositionValid)
	assert.InDelta(t, 47.285233, snap.Latitude, 1e-6)
	assert.InDelta(t, 8.565265, snap.Longitude, 1e-6)
	assert.Equal(t, 499, snap.Altitude)
	assert.Equal(t, 8, snap.Satellites)

	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_satellites_visible", nil, 8)
	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_altitude_meters", nil, 499)
}

func TestDaemonUBXTimeFeedsGPSReference(t *testing.T) {
	h := newTestHarness(t, nil)

	h.daemon.processFrame(serialport.Frame{
		Protocol: serialport.ProtocolUBX,
		Data:     testutil.UBXTimeGPSFrame(117_372_000, 0, 1196, 0x03),
	})
	h.feedSentence(rmcFirst)

	ref := h.daemon.Reference()
	assert.True(t, ref.Usable())
	assert.Equal(t, int64(1196)*7*24*3600+117_372, ref.GPS.Sec)
}

type fakePort struct {
	chunks [][]byte
	closed chan struct{}
}

func newFakePort(chunks ...[]byte) *fakePort {
	return &fakePort{chunks: chunks, closed: make(chan struct{})}
}

func (p *fakePort) Read(buf []byte) (int, error) {
	if len(p.chunks) == 0 {
		<-p.closed
		return 0, io.EOF
	}
	chunk := p.chunks[0]
	p.chunks = p.chunks[1:]
	return copy(buf, chunk), nil
}

func (p *fakePort) Write(buf []byte) (int, error) { return len(buf), nil }

func (p *fakePort) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

func TestDaemonRunProcessesStream(t *testing.T) {
	line := append(testutil.NMEASentence(rmcFirst), '\r', '\n')
	port := newFakePort(line)
	h := newTestHarness(t, port)

	done := make(chan error, 1)
	go func() { done <- h.daemon.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return h.daemon.Status().ReferenceValid
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, port.Close())
	require.NoError(t, <-done)

	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_serial_bytes_read_total", nil, float64(len(line)))
}

type failingPort struct{}

func (failingPort) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func (failingPort) Write(b []byte) (int, error) { return len(b), nil }

func (failingPort) Close() error { return nil }

func TestDaemonRunReopensPort(t *testing.T) {
	line := append(testutil.NMEASentence(rmcFirst), '\r', '\n')
	replacement := newFakePort(line)

	h := newTestHarness(t, failingPort{})
	h.daemon.SetReopen(func() (io.ReadWriteCloser, error) { return replacement, nil })

	done := make(chan error, 1)
	go func() { done <- h.daemon.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return h.daemon.Status().ReferenceValid
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, replacement.Close())
	require.NoError(t, <-done)

	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_serial_reopens_total", nil, 1)
	testutil.AssertGaugeValue(t, h.registry, "gnss_timesync_serial_read_errors_total", nil, 1)
}

func TestDaemonRunStopsOnCancel(t *testing.T) {
	port := newFakePort()
	h := newTestHarness(t, port)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.daemon.Run(ctx) }()

	cancel()
	require.NoError(t, port.Close())
	require.NoError(t, <-done)
}

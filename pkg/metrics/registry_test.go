package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batuhanky/gnss-timesync/pkg/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()

	require.NotNil(t, r)
	assert.NotNil(t, r.GetRegistry())
	assert.NotNil(t, r.GetMetrics())
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	err := r.Register()

	require.NoError(t, err)

	// Registering the same collector twice must fail
	err = r.GetRegistry().Register(r.GetMetrics())
	assert.Error(t, err)
}

func TestRegistry_MustRegister(t *testing.T) {
	r := NewRegistry()

	assert.NotPanics(t, func() {
		r.MustRegister()
	})
}

func TestRegistry_GatherAfterUpdates(t *testing.T) {
	r := NewRegistryWithConfig("gnss", "timesync")
	r.MustRegister()
	m := r.GetMetrics()

	m.DecodedMessagesTotal.WithLabelValues("nmea", "time_status").Inc()
	m.DecodedMessagesTotal.WithLabelValues("nmea", "time_status").Inc()
	m.DecodedMessagesTotal.WithLabelValues("ubx", "gps_time").Inc()
	m.SyncTransitionsTotal.WithLabelValues("accepted").Inc()
	m.DriftPPM.Set(2.5)
	m.ReferenceValid.Set(1)
	m.SatellitesVisible.Set(8)

	testutil.AssertGaugeValue(t, r.GetRegistry(), "gnss_timesync_decoded_messages_total",
		map[string]string{"protocol": "nmea", "result": "time_status"}, 2)
	testutil.AssertGaugeValue(t, r.GetRegistry(), "gnss_timesync_decoded_messages_total",
		map[string]string{"protocol": "ubx", "result": "gps_time"}, 1)
	testutil.AssertGaugeValue(t, r.GetRegistry(), "gnss_timesync_sync_transitions_total",
		map[string]string{"transition": "accepted"}, 1)
	testutil.AssertGaugeValue(t, r.GetRegistry(), "gnss_timesync_drift_ppm", nil, 2.5)
	testutil.AssertGaugeValue(t, r.GetRegistry(), "gnss_timesync_reference_valid", nil, 1)
	testutil.AssertGaugeValue(t, r.GetRegistry(), "gnss_timesync_satellites_visible", nil, 8)
}

func TestRegistry_CustomNamespace(t *testing.T) {
	r := NewRegistryWithConfig("custom", "")
	r.MustRegister()

	r.GetMetrics().FixValid.Set(1)

	testutil.AssertGaugeValue(t, r.GetRegistry(), "custom_fix_valid", nil, 1)
}

func TestSyncMetrics_CollectorInterface(t *testing.T) {
	m := NewSyncMetrics()

	descs := make(chan *prometheus.Desc, 128)
	m.Describe(descs)
	close(descs)

	count := 0
	for range descs {
		count++
	}
	assert.Greater(t, count, 10)
}

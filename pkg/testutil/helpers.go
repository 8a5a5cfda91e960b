// Package testutil provides shared helpers for building GNSS wire-format
// fixtures and asserting on Prometheus metrics. Frame checksums are computed
// independently from the production code so round-trip tests actually cross
// two implementations.
package testutil

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// NMEASentence appends the XOR checksum to an NMEA sentence body, producing
// a complete "$...*hh" sentence. The body must include the leading '$' and
// must not include the '*'.
func NMEASentence(body string) []byte {
	sum := byte(0)
	for i := 1; i < len(body); i++ {
		sum ^= body[i]
	}
	return []byte(fmt.Sprintf("%s*%02X", body, sum))
}

// UBXFrame builds a complete UBX frame with a valid running checksum.
func UBXFrame(class, id byte, payload []byte) []byte {
	frame := make([]byte, 0, 8+len(payload))
	frame = append(frame, 0xB5, 0x62, class, id)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(payload)))
	frame = append(frame, payload...)
	var ckA, ckB byte
	for _, b := range frame[2:] {
		ckA += b
		ckB += ckA
	}
	return append(frame, ckA, ckB)
}

// UBXTimeGPSPayload builds a 16-byte NAV-TIMEGPS payload. validFlags holds
// the towValid/weekValid bits (0x03 for a fully valid fix).
func UBXTimeGPSPayload(itow uint32, ftow int32, week int16, validFlags byte) []byte {
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint32(payload[0:4], itow)
	binary.LittleEndian.PutUint32(payload[4:8], uint32(ftow))
	binary.LittleEndian.PutUint16(payload[8:10], uint16(week))
	payload[10] = 0x12 // leap seconds, arbitrary
	payload[11] = validFlags
	payload[12] = 0x0A // tAcc, arbitrary filler
	return payload
}

// UBXTimeGPSFrame builds a complete, checksummed NAV-TIMEGPS frame.
func UBXTimeGPSFrame(itow uint32, ftow int32, week int16, validFlags byte) []byte {
	return UBXFrame(0x01, 0x20, UBXTimeGPSPayload(itow, ftow, week, validFlags))
}

// AssertGaugeValue validates the value of a gauge in the registry.
func AssertGaugeValue(t *testing.T, registry *prometheus.Registry, metricName string, labels map[string]string, expected float64) {
	t.Helper()

	value, found := findMetricValue(t, registry, metricName, labels)
	if !found {
		t.Errorf("metric %s with labels %v not found", metricName, labels)
		return
	}
	if value != expected {
		t.Errorf("metric %s = %v, want %v", metricName, value, expected)
	}
}

// FindMetricValue looks up a gauge or counter value by name and labels.
func FindMetricValue(t *testing.T, registry *prometheus.Registry, metricName string, labels map[string]string) (float64, bool) {
	t.Helper()
	return findMetricValue(t, registry, metricName, labels)
}

func findMetricValue(t *testing.T, registry *prometheus.Registry, metricName string, labels map[string]string) (float64, bool) {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, family := range families {
		if family.GetName() != metricName {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !labelsMatch(metric, labels) {
				continue
			}
			switch {
			case metric.GetGauge() != nil:
				return metric.GetGauge().GetValue(), true
			case metric.GetCounter() != nil:
				return metric.GetCounter().GetValue(), true
			}
		}
	}
	return 0, false
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for name, want := range labels {
		if got[name] != want {
			return false
		}
	}
	return true
}

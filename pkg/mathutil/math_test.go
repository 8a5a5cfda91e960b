package mathutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAbsFloat64(t *testing.T) {
	assert.Equal(t, 1.5, AbsFloat64(-1.5))
	assert.Equal(t, 1.5, AbsFloat64(1.5))
	assert.Equal(t, 0.0, AbsFloat64(0.0))
}

func TestAbsDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, AbsDuration(-5*time.Second))
	assert.Equal(t, 5*time.Second, AbsDuration(5*time.Second))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name          string
		val, min, max float64
		want          float64
	}{
		{"below", -2.0, 0.0, 1.0, 0.0},
		{"above", 2.0, 0.0, 1.0, 1.0},
		{"inside", 0.5, 0.0, 1.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.val, tt.min, tt.max))
		})
	}
}

func TestWrapDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b uint32
		want uint32
	}{
		{"no_wrap", 1000, 400, 600},
		{"across_wrap", 100, 0xFFFFFF00, 356},
		{"identical", 42, 42, 0},
		{"full_epoch_minus_one", 0, 1, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapDiff(tt.a, tt.b))
		})
	}
}

func TestWrapAdd(t *testing.T) {
	assert.Equal(t, uint32(44), WrapAdd(0xFFFFFFFF, 45))
	assert.Equal(t, uint32(10), WrapAdd(4, 6))
}

func TestRatioPPMRoundTrip(t *testing.T) {
	assert.InDelta(t, 10.0, RatioToPPM(1.00001), 1e-6)
	assert.InDelta(t, -10.0, RatioToPPM(0.99999), 1e-6)
	assert.InDelta(t, 1.00001, PPMToRatio(10.0), 1e-12)
	assert.InDelta(t, 1.0, PPMToRatio(RatioToPPM(1.0)), 1e-12)
}

package mathutil

import "time"

// AbsFloat64 returns the absolute value of a float64
func AbsFloat64(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// AbsDuration returns the absolute value of a duration
func AbsDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Clamp clamps a value between min and max
func Clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// WrapDiff returns a - b in wrapping uint32 arithmetic.
// The hardware counter runs at 1 MHz and wraps every ~71.58 minutes;
// subtraction across a wrap must stay modular, never widen to int64 first.
func WrapDiff(a, b uint32) uint32 {
	return a - b
}

// WrapAdd returns a + b in wrapping uint32 arithmetic.
func WrapAdd(a, b uint32) uint32 {
	return a + b
}

// RatioToPPM converts a dimensionless drift ratio to parts-per-million
// deviation from 1.0.
func RatioToPPM(ratio float64) float64 {
	return (ratio - 1.0) * 1e6
}

// PPMToRatio converts a parts-per-million deviation to a drift ratio.
func PPMToRatio(ppm float64) float64 {
	return 1.0 + ppm/1e6
}

package timesync

import (
	"math"
	"time"
)

// Timespec is an explicit seconds + nanoseconds pair.
//
// Conversions between counter ticks and time need exact carry behavior on
// the nanosecond field, and the GPS side counts seconds from the GPS epoch
// (1980-01-06) rather than the Unix epoch, so a bare time.Time does not fit.
// Use FromTime/Time at the edges when talking to callers that want UTC.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// GPSEpoch is the GPS time origin, 1980-01-06T00:00:00Z.
var GPSEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

// SecondsPerWeek is the length of a GPS week in seconds.
const SecondsPerWeek = 7 * 24 * 60 * 60

// FromTime converts a time.Time to a Unix-epoch Timespec.
func FromTime(t time.Time) Timespec {
	return Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// Time converts a Unix-epoch Timespec to a time.Time in UTC.
func (ts Timespec) Time() time.Time {
	return time.Unix(ts.Sec, ts.Nsec).UTC()
}

// Sub returns ts - other in seconds, combining the second and nanosecond
// fields as a single floating-point difference.
func (ts Timespec) Sub(other Timespec) float64 {
	return float64(ts.Sec-other.Sec) + 1e-9*float64(ts.Nsec-other.Nsec)
}

// addSeconds returns ts advanced by delta seconds, carrying one second when
// the combined nanosecond part reaches 1e9.
func (ts Timespec) addSeconds(delta float64) Timespec {
	intpart, fractpart := math.Modf(delta)
	nsec := ts.Nsec + int64(fractpart*1e9)
	if nsec < 1e9 {
		return Timespec{Sec: ts.Sec + int64(intpart), Nsec: nsec}
	}
	return Timespec{Sec: ts.Sec + int64(intpart) + 1, Nsec: nsec - 1e9}
}

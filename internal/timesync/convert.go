package timesync

import "github.com/batuhanky/gnss-timesync/pkg/mathutil"

// CountToUTC converts a counter value to UTC using the reference and its
// drift ratio. Fails with ErrInvalidReference when the reference is
// uninitialized or the drift ratio is out of band.
func CountToUTC(ref Reference, countUs uint32) (Timespec, error) {
	if !ref.Usable() {
		return Timespec{}, ErrInvalidReference
	}
	delta := float64(mathutil.WrapDiff(countUs, ref.CountUs)) / (TicksPerSecond * ref.XtalErr)
	return ref.UTC.addSeconds(delta), nil
}

// UTCToCount converts a UTC time to a counter value. The result truncates
// to uint32 and wraps naturally across counter epochs.
func UTCToCount(ref Reference, utc Timespec) (uint32, error) {
	if !ref.Usable() {
		return 0, ErrInvalidReference
	}
	delta := utc.Sub(ref.UTC)
	ticks := int64(delta * TicksPerSecond * ref.XtalErr)
	return mathutil.WrapAdd(ref.CountUs, uint32(ticks)), nil
}

// CountToGPS converts a counter value to GPS time (seconds since the GPS
// epoch, no leap seconds) using the GPS side of the reference.
func CountToGPS(ref Reference, countUs uint32) (Timespec, error) {
	if !ref.Usable() {
		return Timespec{}, ErrInvalidReference
	}
	delta := float64(mathutil.WrapDiff(countUs, ref.CountUs)) / (TicksPerSecond * ref.XtalErr)
	return ref.GPS.addSeconds(delta), nil
}

// GPSToCount converts a GPS time to a counter value.
func GPSToCount(ref Reference, gps Timespec) (uint32, error) {
	if !ref.Usable() {
		return 0, ErrInvalidReference
	}
	delta := gps.Sub(ref.GPS)
	ticks := int64(delta * TicksPerSecond * ref.XtalErr)
	return mathutil.WrapAdd(ref.CountUs, uint32(ticks)), nil
}

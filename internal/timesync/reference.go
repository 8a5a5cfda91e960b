package timesync

import "errors"

// Counter and drift constants. The concentrator timestamp counter ticks at
// 1 MHz and wraps as a uint32, one epoch every ~4294.97 s (~71.58 min).
const (
	TicksPerSecond = 1e6

	// Acceptable drift ratio band: +/- 10 ppm around 1.0. A reference whose
	// XtalErr falls outside this band is unusable for conversions.
	MaxDriftRatio = 1.00001
	MinDriftRatio = 0.99999
)

var (
	// ErrInvalidReference means the reference is uninitialized or its drift
	// ratio is out of the +/-10 ppm band; conversions must not use it.
	ErrInvalidReference = errors.New("timesync: invalid reference for conversion")

	// ErrAberrantSample means a synchronization sample was rejected as an
	// outlier; the caller should keep using the stale reference.
	ErrAberrantSample = errors.New("timesync: aberrant synchronization sample")
)

// Reference is the anchor tuple correlating the free-running counter with
// absolute time. It is owned by the caller and passed explicitly into every
// engine call; the engine never retains it.
type Reference struct {
	// SysTime is the Unix system time of the last update. Zero marks a
	// never-initialized reference.
	SysTime int64

	// CountUs is the hardware counter value at the reference instant.
	CountUs uint32

	// UTC is the UTC time at the reference instant (Unix epoch).
	UTC Timespec

	// GPS is the GPS time at the reference instant (GPS epoch, no leap
	// seconds).
	GPS Timespec

	// XtalErr is the estimated ratio of counter rate to true elapsed time.
	// 1.0 means no drift.
	XtalErr float64
}

// Usable reports whether the reference can serve conversions.
func (r Reference) Usable() bool {
	if r.SysTime == 0 {
		return false
	}
	return r.XtalErr >= MinDriftRatio && r.XtalErr <= MaxDriftRatio
}

// History records whether the two most recent synchronization attempts were
// rejected as outliers. It must persist across Sync calls and is owned by
// whichever component owns the engine instance.
type History struct {
	prev1 bool // previous sample aberrant
	prev2 bool // sample before that aberrant
}

// shift pushes the outcome of the current sample into the history.
func (h *History) shift(aberrant bool) {
	h.prev2 = h.prev1
	h.prev1 = aberrant
}

// strikes reports whether both recorded attempts were aberrant, i.e. a third
// aberrant sample completes the 3-strike rule.
func (h *History) strikes() bool {
	return h.prev1 && h.prev2
}

package timesync

import (
	"errors"
	"time"

	"github.com/batuhanky/gnss-timesync/pkg/mathutil"
)

// Engine drives the clock correlation state machine. It owns the aberration
// history; the reference itself stays with the caller. Not safe for
// concurrent use.
type Engine struct {
	history History

	// now is the system clock, overridable in tests.
	now func() time.Time
}

// NewEngine creates a correlation engine with an empty aberration history.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Transition is the outcome of a Sync call.
type Transition int

const (
	// Accepted means the sample was in band and the reference was
	// overwritten wholesale, drift ratio included.
	Accepted Transition = iota

	// Reset means the third consecutive aberrant sample re-anchored the
	// reference time fields. The drift ratio is kept when still plausible.
	Reset

	// Rejected means the sample was aberrant and the reference was left
	// untouched.
	Rejected
)

func (t Transition) String() string {
	switch t {
	case Accepted:
		return "accepted"
	case Reset:
		return "reset"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Bootstrap seeds a fresh reference from the first valid fix, before the
// sync loop has any previous point to compute a slope against.
func (e *Engine) Bootstrap(ref *Reference, countUs uint32, utc, gps Timespec) error {
	if ref == nil {
		return errors.New("timesync: nil reference")
	}
	ref.SysTime = e.now().Unix()
	ref.CountUs = countUs
	ref.UTC = utc
	ref.GPS = gps
	ref.XtalErr = 1.0
	e.history = History{}
	return nil
}

// Sync updates the reference from a new (counter, UTC, GPS) sample.
//
// The implied slope between the sample and the current reference is the
// ratio of counter seconds to UTC seconds. A slope outside the +/-10 ppm
// band (or an unusable zero UTC difference) marks the sample aberrant.
// One or two consecutive aberrant samples are rejected and the reference is
// left untouched; the third re-anchors the reference (3-strike reset)
// without discarding a still-plausible drift estimate.
//
// Returns the transition taken and ErrAberrantSample on rejection.
func (e *Engine) Sync(ref *Reference, countUs uint32, utc, gps Timespec) (Transition, error) {
	if ref == nil {
		return Rejected, errors.New("timesync: nil reference")
	}

	cntDiff := float64(mathutil.WrapDiff(countUs, ref.CountUs)) / TicksPerSecond
	utcDiff := utc.Sub(ref.UTC)

	aberrant := true
	slope := 0.0
	if utcDiff != 0 { // a zero difference cannot yield a slope
		slope = cntDiff / utcDiff
		aberrant = slope > MaxDriftRatio || slope < MinDriftRatio
	}

	switch {
	case !aberrant:
		ref.SysTime = e.now().Unix()
		ref.CountUs = countUs
		ref.UTC = utc
		ref.GPS = gps
		ref.XtalErr = slope
		e.history.shift(false)
		return Accepted, nil

	case e.history.strikes():
		// 3 successive aberrant samples: re-anchor time, keep the last good
		// drift estimate unless it is itself out of band.
		ref.SysTime = e.now().Unix()
		ref.CountUs = countUs
		ref.UTC = utc
		ref.GPS = gps
		if ref.XtalErr > MaxDriftRatio || ref.XtalErr < MinDriftRatio {
			ref.XtalErr = 1.0
		}
		e.history.shift(true)
		return Reset, nil

	default:
		e.history.shift(true)
		return Rejected, ErrAberrantSample
	}
}

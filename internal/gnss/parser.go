// Package gnss decodes the two wire formats emitted by a u-blox style GNSS
// receiver: ASCII NMEA sentences and the proprietary UBX binary protocol.
// A Parser holds the latest decoded time and position; the surrounding
// transport delivers already-delimited candidate buffers and reads the
// resulting state back as UTC/GPS timespecs for clock correlation.
package gnss

import (
	"errors"
	"math"
	"time"

	"github.com/batuhanky/gnss-timesync/internal/timesync"
)

// Classification is the outcome of one decode call.
type Classification int

const (
	// Ignored marks a well-formed message of a kind this parser does not
	// consume, or a buffer that belongs to another protocol.
	Ignored Classification = iota

	// Invalid marks a corrupt frame: checksum mismatch or oversized input.
	Invalid

	// Incomplete marks a UBX frame shorter than its declared size; the
	// caller must resupply at least the reported number of bytes.
	Incomplete

	// Unknown marks a buffer too short or malformed to classify.
	Unknown

	// GPSTime is a UBX NAV-TIMEGPS message.
	GPSTime

	// TimeStatus is an NMEA RMC sentence.
	TimeStatus

	// Position is an NMEA GGA sentence.
	Position
)

func (c Classification) String() string {
	switch c {
	case Ignored:
		return "ignored"
	case Invalid:
		return "invalid"
	case Incomplete:
		return "incomplete"
	case Unknown:
		return "unknown"
	case GPSTime:
		return "gps_time"
	case TimeStatus:
		return "time_status"
	case Position:
		return "position"
	default:
		return "unclassified"
	}
}

var (
	// ErrNoValidTime is returned by the time accessors while no usable fix
	// has been decoded.
	ErrNoValidTime = errors.New("gnss: no valid time")

	// ErrNoValidPosition is returned by Position while no usable position
	// has been decoded.
	ErrNoValidPosition = errors.New("gnss: no valid position")
)

// Fix modes carried in the RMC posMode field.
const (
	FixNone         = 'N'
	FixAutonomous   = 'A'
	FixDifferential = 'D'
)

// ParsedTime is the latest RMC date/time. The year is century-ambiguous by
// design: receivers emit two digits, mapped to 20xx on conversion.
type ParsedTime struct {
	Year     int
	Month    int // 1-12
	Day      int // 1-31
	Hour     int // 0-23
	Minute   int // 0-59
	Second   int // 0-60, 60 for a leap second
	Fraction float64
	FixMode  byte
	Valid    bool
}

// ParsedPosition is the latest GGA coordinate set, kept in the receiver's
// degrees+minutes form.
type ParsedPosition struct {
	LatDeg     int
	LatMin     float64
	LatHemi    byte // 'N' or 'S'
	LonDeg     int
	LonMin     float64
	LonHemi    byte // 'E' or 'W'
	Altitude   int
	Satellites int
	Valid      bool
}

// Coordinates is a position resolved to decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
	Altitude  int
}

// UbxTimeGPS is the latest NAV-TIMEGPS payload.
type UbxTimeGPS struct {
	ITOW  uint32 // GPS time of week, milliseconds
	FTOW  int32  // fractional time of week, nanoseconds, |fTOW| < 500000
	Week  int16  // GPS week number
	Valid bool
}

// Parser holds the decoded GNSS state for one receiver. Decode calls mutate
// it; it is not safe for concurrent use, and the caller must not read state
// while a decode is in flight. Construct one per serial session.
type Parser struct {
	tim ParsedTime
	pos ParsedPosition

	iTOW uint32
	fTOW int32
	week int16

	// timeOK gates both time accessors; RMC and NAV-TIMEGPS each overwrite
	// it, last writer wins.
	timeOK bool
	posOK  bool

	scratch [nmeaScratchSize]byte
}

// NewParser creates an empty parser: no valid time, no valid position,
// fix mode none.
func NewParser() *Parser {
	return &Parser{tim: ParsedTime{FixMode: FixNone}}
}

// Time returns the latest RMC time snapshot.
func (p *Parser) Time() ParsedTime {
	t := p.tim
	t.Valid = p.timeOK
	return t
}

// RawPosition returns the latest GGA snapshot in degrees+minutes form.
func (p *Parser) RawPosition() ParsedPosition {
	pos := p.pos
	pos.Valid = p.posOK
	return pos
}

// UbxTime returns the latest NAV-TIMEGPS snapshot.
func (p *Parser) UbxTime() UbxTimeGPS {
	return UbxTimeGPS{ITOW: p.iTOW, FTOW: p.fTOW, Week: p.week, Valid: p.timeOK}
}

// UTCTime converts the latest RMC broken-down time to a UTC timespec.
// Two-digit years resolve to 20xx.
func (p *Parser) UTCTime() (timesync.Timespec, error) {
	if !p.timeOK {
		return timesync.Timespec{}, ErrNoValidTime
	}
	year := p.tim.Year
	if year < 100 {
		year += 2000
	}
	t := time.Date(year, time.Month(p.tim.Month), p.tim.Day,
		p.tim.Hour, p.tim.Minute, p.tim.Second, 0, time.UTC)
	return timesync.Timespec{Sec: t.Unix(), Nsec: int64(p.tim.Fraction * 1e9)}, nil
}

// GPSTime converts the latest NAV-TIMEGPS fields to seconds since the GPS
// epoch (1980-01-06), free of leap seconds.
func (p *Parser) GPSTime() (timesync.Timespec, error) {
	if !p.timeOK {
		return timesync.Timespec{}, ErrNoValidTime
	}
	weekSeconds := float64(p.iTOW)/1e3 + float64(p.fTOW)/1e9
	intpart, fractpart := math.Modf(weekSeconds)
	return timesync.Timespec{
		Sec:  int64(intpart) + int64(p.week)*timesync.SecondsPerWeek,
		Nsec: int64(fractpart * 1e9),
	}, nil
}

// Position resolves the latest GGA fix to decimal degrees. North and east
// are positive. Position error estimation is not implemented.
func (p *Parser) Position() (Coordinates, error) {
	if !p.posOK {
		return Coordinates{}, ErrNoValidPosition
	}
	lat := float64(p.pos.LatDeg) + p.pos.LatMin/60.0
	if p.pos.LatHemi == 'S' {
		lat = -lat
	}
	lon := float64(p.pos.LonDeg) + p.pos.LonMin/60.0
	if p.pos.LonHemi == 'W' {
		lon = -lon
	}
	return Coordinates{Latitude: lat, Longitude: lon, Altitude: p.pos.Altitude}, nil
}

// DecodeNMEA classifies and decodes one candidate NMEA sentence: checksum
// first, then label match against the RMC and GGA patterns with wildcard
// talker positions. On success the shared time or position state is
// overwritten, never both from one sentence.
func (p *Parser) DecodeNMEA(buf []byte) Classification {
	if buf == nil {
		return Unknown
	}
	if len(buf) > nmeaScratchSize-1 {
		return Invalid
	}
	if len(buf) < nmeaMinLen {
		return Unknown
	}
	if !ValidateChecksum(buf) {
		return Invalid
	}

	switch {
	case matchLabel(buf, "$G?RMC", '?'):
		return p.decodeRMC(buf)
	case matchLabel(buf, "$G?GGA", '?'):
		return p.decodeGGA(buf)
	default:
		return Ignored
	}
}

// decodeRMC extracts time, date and fix mode from an RMC sentence:
// $xxRMC,time,status,lat,NS,long,EW,spd,cog,date,mv,mvEW,posMode*cs
func (p *Parser) decodeRMC(buf []byte) Classification {
	scratch := p.scratch[:len(buf)+1]
	copy(scratch, buf)
	scratch[len(buf)] = 0

	offsets, _, err := SplitFields(scratch[:len(buf)], ',', nmeaMaxFields)
	if err != nil {
		return Invalid
	}
	if len(offsets) != 13 && len(offsets) != 14 {
		return Ignored
	}

	mode := field(scratch, offsets[12])
	p.tim.FixMode = FixNone
	if len(mode) > 0 && (mode[0] == FixAutonomous || mode[0] == FixDifferential || mode[0] == FixNone) {
		p.tim.FixMode = mode[0]
	}

	timeOK := p.parseRMCTime(field(scratch, offsets[1]))
	dateOK := p.parseRMCDate(field(scratch, offsets[9]))

	locked := p.tim.FixMode == FixAutonomous || p.tim.FixMode == FixDifferential
	p.timeOK = timeOK && dateOK && locked
	return TimeStatus
}

// parseRMCTime parses hhmmss.sss; every sub-field must match.
func (p *Parser) parseRMCTime(s []byte) bool {
	hour, n1, ok1 := parseDigits(s, 2)
	if !ok1 || n1 != 2 {
		return false
	}
	min, n2, ok2 := parseDigits(s[2:], 2)
	if !ok2 || n2 != 2 {
		return false
	}
	sec, n3, ok3 := parseDigits(s[4:], 2)
	if !ok3 || n3 != 2 {
		return false
	}
	frac, ok4 := parseFraction(s[6:])
	if !ok4 {
		return false
	}
	p.tim.Hour, p.tim.Minute, p.tim.Second, p.tim.Fraction = hour, min, sec, frac
	return true
}

// parseRMCDate parses ddmmyy.
func (p *Parser) parseRMCDate(s []byte) bool {
	day, n1, ok1 := parseDigits(s, 2)
	if !ok1 || n1 != 2 {
		return false
	}
	mon, n2, ok2 := parseDigits(s[2:], 2)
	if !ok2 || n2 != 2 {
		return false
	}
	year, _, ok3 := parseDigits(s[4:], 2)
	if !ok3 {
		return false
	}
	p.tim.Day, p.tim.Month, p.tim.Year = day, mon, year
	return true
}

// decodeGGA extracts position, altitude and satellite count from a GGA
// sentence:
// $xxGGA,time,lat,NS,long,EW,quality,numSV,HDOP,alt,M,sep,M,diffAge,diffStation*cs
func (p *Parser) decodeGGA(buf []byte) Classification {
	scratch := p.scratch[:len(buf)+1]
	copy(scratch, buf)
	scratch[len(buf)] = 0

	offsets, _, err := SplitFields(scratch[:len(buf)], ',', nmeaMaxFields)
	if err != nil {
		return Invalid
	}
	if len(offsets) != 15 {
		return Ignored
	}

	if sat, ok := parseLeadingInt(field(scratch, offsets[7])); ok {
		p.pos.Satellites = sat
	}

	latOK := p.parseCoordinate(field(scratch, offsets[2]), 2, &p.pos.LatDeg, &p.pos.LatMin)
	lonOK := p.parseCoordinate(field(scratch, offsets[4]), 3, &p.pos.LonDeg, &p.pos.LonMin)

	latHemi := field(scratch, offsets[3])
	lonHemi := field(scratch, offsets[5])
	if len(latHemi) > 0 {
		p.pos.LatHemi = latHemi[0]
	} else {
		p.pos.LatHemi = 0
	}
	if len(lonHemi) > 0 {
		p.pos.LonHemi = lonHemi[0]
	} else {
		p.pos.LonHemi = 0
	}

	alt, altOK := parseLeadingInt(field(scratch, offsets[9]))
	if altOK {
		p.pos.Altitude = alt
	}

	p.posOK = latOK && lonOK && altOK &&
		(p.pos.LatHemi == 'N' || p.pos.LatHemi == 'S') &&
		(p.pos.LonHemi == 'E' || p.pos.LonHemi == 'W')
	return Position
}

// parseCoordinate splits ddmm.mmmm (or dddmm.mmmm) into whole degrees and
// decimal minutes.
func (p *Parser) parseCoordinate(s []byte, degWidth int, deg *int, min *float64) bool {
	d, n, ok := parseDigits(s, degWidth)
	if !ok || n != degWidth {
		return false
	}
	m, ok := parseMinutes(s[degWidth:])
	if !ok {
		return false
	}
	*deg = d
	*min = m
	return true
}

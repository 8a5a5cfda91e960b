package gnss

// NMEA sentence handling: XOR checksum validation, talker-wildcard label
// matching and field extraction for the two time-bearing sentence kinds
// (RMC and GGA). All other sentences pass through as recognized-but-ignored.

const (
	// nmeaScratchSize bounds the sentence length; field splitting mutates a
	// local copy so oversized input is rejected outright.
	nmeaScratchSize = 256

	// nmeaMinLen is the shortest buffer worth classifying.
	nmeaMinLen = 8

	nmeaMaxFields = 30
)

const hexDigits = "0123456789ABCDEF"

// nmeaChecksum XORs every byte between the optional leading '$' and the '*'
// delimiter and returns the index just past '*'. ok is false when no '*' is
// found within the buffer.
func nmeaChecksum(buf []byte) (sum byte, idx int, ok bool) {
	i := 0
	if i < len(buf) && buf[i] == '$' {
		i++
	}
	for ; i < len(buf); i++ {
		if buf[i] == '*' {
			return sum, i + 1, true
		}
		sum ^= buf[i]
	}
	return 0, 0, false
}

// ValidateChecksum recomputes the sentence checksum and compares it with the
// two uppercase hex characters following '*'. Any parse failure before the
// delimiter counts as a validation failure.
func ValidateChecksum(buf []byte) bool {
	sum, idx, ok := nmeaChecksum(buf)
	if !ok {
		return false
	}
	if idx+1 >= len(buf) {
		return false
	}
	return buf[idx] == hexDigits[sum>>4] && buf[idx+1] == hexDigits[sum&0x0F]
}

// matchLabel reports whether label (with wildcard positions) matches the
// start of s.
func matchLabel(s []byte, label string, wildcard byte) bool {
	if len(s) < len(label) {
		return false
	}
	for i := 0; i < len(label); i++ {
		if label[i] == wildcard {
			continue
		}
		if label[i] != s[i] {
			return false
		}
	}
	return true
}

// parseDigits reads up to width leading decimal digits. ok requires at
// least one digit.
func parseDigits(s []byte, width int) (val, consumed int, ok bool) {
	for consumed < len(s) && consumed < width && s[consumed] >= '0' && s[consumed] <= '9' {
		val = val*10 + int(s[consumed]-'0')
		consumed++
	}
	return val, consumed, consumed > 0
}

// parseLeadingInt reads an optionally signed integer prefix, stopping at the
// first non-digit (so "499.6" yields 499).
func parseLeadingInt(s []byte) (int, bool) {
	neg := false
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	val, _, ok := parseDigits(s[i:], len(s))
	if !ok {
		return 0, false
	}
	if neg {
		val = -val
	}
	return val, true
}

// parseFraction reads a ".ddd" sub-second fraction, up to three fractional
// digits.
func parseFraction(s []byte) (float64, bool) {
	if len(s) < 2 || s[0] != '.' {
		return 0, false
	}
	frac := 0.0
	scale := 0.1
	n := 0
	for i := 1; i < len(s) && n < 3; i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		frac += float64(s[i]-'0') * scale
		scale /= 10
		n++
	}
	if n == 0 {
		return 0, false
	}
	return frac, true
}

// parseMinutes reads the "mm.mmmm" minutes part of a coordinate: an integer
// prefix with an optional fractional tail.
func parseMinutes(s []byte) (float64, bool) {
	min := 0.0
	i := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		min = min*10 + float64(s[i]-'0')
	}
	if i == 0 {
		return 0, false
	}
	if i == len(s) {
		return min, true
	}
	if s[i] != '.' {
		return 0, false
	}
	i++
	start := i
	scale := 0.1
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		min += float64(s[i]-'0') * scale
		scale /= 10
	}
	if i == start || i != len(s) {
		return 0, false
	}
	return min, true
}

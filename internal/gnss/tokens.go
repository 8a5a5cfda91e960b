package gnss

import "errors"

var (
	// ErrEmptyBuffer is returned for a nil or empty input buffer.
	ErrEmptyBuffer = errors.New("gnss: empty buffer")

	// ErrBadSeparator is returned for a zero separator byte.
	ErrBadSeparator = errors.New("gnss: separator must be non-zero")

	// ErrBadCapacity is returned for a non-positive token capacity.
	ErrBadCapacity = errors.New("gnss: token capacity must be positive")
)

// SplitFields tokenizes buf in place on sep: every separator byte becomes a
// NUL terminator and the starting offset of each token is recorded. The last
// byte of the buffer is forced to NUL before scanning so the scan is bounded.
//
// There is always at least one token, the implicit first one at offset 0.
// Once maxTokens offsets have been recorded the scan keeps terminating
// tokens but records no more, and truncated is reported so the caller can
// tell a full result from a clipped one.
func SplitFields(buf []byte, sep byte, maxTokens int) (offsets []int, truncated bool, err error) {
	if len(buf) == 0 {
		return nil, false, ErrEmptyBuffer
	}
	if sep == 0 {
		return nil, false, ErrBadSeparator
	}
	if maxTokens <= 0 {
		return nil, false, ErrBadCapacity
	}

	buf[len(buf)-1] = 0

	offsets = make([]int, 1, maxTokens)
	for i := 0; buf[i] != 0; i++ {
		if buf[i] != sep {
			continue
		}
		buf[i] = 0
		if len(offsets) >= maxTokens {
			truncated = true
			continue
		}
		offsets = append(offsets, i+1)
	}
	return offsets, truncated, nil
}

// field returns the token starting at off, up to its NUL terminator.
func field(buf []byte, off int) []byte {
	for i := off; i < len(buf); i++ {
		if buf[i] == 0 {
			return buf[off:i]
		}
	}
	return buf[off:]
}

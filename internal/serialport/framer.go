package serialport

import (
	"bytes"
	"encoding/binary"

	"github.com/batuhanky/gnss-timesync/internal/gnss"
)

// Protocol identifies the wire format of an extracted frame.
type Protocol int

const (
	ProtocolNMEA Protocol = iota
	ProtocolUBX
)

func (p Protocol) String() string {
	if p == ProtocolUBX {
		return "ubx"
	}
	return "nmea"
}

// Frame is one delimited receiver message: an NMEA sentence without its
// line terminator, or a complete UBX frame including checksum.
type Frame struct {
	Protocol Protocol
	Data     []byte
}

const (
	nmeaStart = '$'

	// maxLineLen bounds an unterminated NMEA sentence before it is treated
	// as line noise and discarded.
	maxLineLen = 255

	// maxUbxPayload bounds the declared UBX payload length. A corrupted
	// length field must not stall the framer waiting for data that will
	// never arrive.
	maxUbxPayload = 512

	ubxHeaderLen = 6
	ubxFrameLen  = ubxHeaderLen + 2
)

// Framer reassembles the interleaved NMEA/UBX byte stream coming off the
// serial port into whole frames. Bytes that belong to neither protocol are
// dropped. Not safe for concurrent use.
type Framer struct {
	buf []byte
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{buf: make([]byte, 0, 512)}
}

// Push appends raw receiver bytes and returns every complete frame now
// available, in arrival order. Returned frames own their data.
func (f *Framer) Push(data []byte) []Frame {
	f.buf = append(f.buf, data...)

	var frames []Frame
	for {
		frame, ok := f.next()
		if !ok {
			break
		}
		frames = append(frames, frame)
	}
	return frames
}

// Pending returns the number of buffered bytes not yet part of a complete
// frame.
func (f *Framer) Pending() int {
	return len(f.buf)
}

func (f *Framer) next() (Frame, bool) {
	for len(f.buf) > 0 {
		switch f.buf[0] {
		case gnss.UbxSync1:
			if len(f.buf) < 2 {
				return Frame{}, false
			}
			if f.buf[1] != gnss.UbxSync2 {
				f.consume(1)
				continue
			}
			if len(f.buf) < ubxHeaderLen {
				return Frame{}, false
			}
			payloadLen := int(binary.LittleEndian.Uint16(f.buf[4:6]))
			if payloadLen > maxUbxPayload {
				f.consume(2)
				continue
			}
			size := ubxFrameLen + payloadLen
			if len(f.buf) < size {
				return Frame{}, false
			}
			data := make([]byte, size)
			copy(data, f.buf[:size])
			f.consume(size)
			return Frame{Protocol: ProtocolUBX, Data: data}, true

		case nmeaStart:
			end := bytes.IndexAny(f.buf, "\r\n")
			if end < 0 {
				if len(f.buf) > maxLineLen {
					f.consume(1)
					continue
				}
				return Frame{}, false
			}
			data := make([]byte, end)
			copy(data, f.buf[:end])
			f.consume(end + 1)
			return Frame{Protocol: ProtocolNMEA, Data: data}, true

		default:
			// Noise between frames.
			f.consume(1)
		}
	}
	return Frame{}, false
}

func (f *Framer) consume(n int) {
	f.buf = f.buf[:copy(f.buf, f.buf[n:])]
}

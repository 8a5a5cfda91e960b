package gnss

import "encoding/binary"

// UBX framing: 2 sync bytes, class, ID, little-endian payload length,
// payload, and a 2-byte 8-bit Fletcher checksum over class through payload.
const (
	UbxSync1 = 0xB5
	UbxSync2 = 0x62

	ubxHeaderLen   = 6
	ubxChecksumLen = 2
	ubxMinLen      = 8

	// NAV-TIMEGPS: GPS time of week.
	UbxClassNav   = 0x01
	UbxIDTimeGPS  = 0x20
	ubxTimeGPSLen = 16

	// ACK-NAK / ACK-ACK.
	UbxClassAck = 0x05
)

// ubxChecksum computes the running 8-bit Fletcher checksum pair over data.
func ubxChecksum(data []byte) (ckA, ckB byte) {
	for _, b := range data {
		ckA += b
		ckB += ckA
	}
	return ckA, ckB
}

// EncodeUBX assembles a complete UBX frame around payload. Used for the
// receiver configuration commands sent at session start and for building
// test frames.
func EncodeUBX(class, id byte, payload []byte) []byte {
	buf := make([]byte, 0, ubxHeaderLen+len(payload)+ubxChecksumLen)
	buf = append(buf, UbxSync1, UbxSync2, class, id)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(payload)))
	buf = append(buf, payload...)
	ckA, ckB := ubxChecksum(buf[2:])
	return append(buf, ckA, ckB)
}

// DecodeUBX attempts to extract one framed UBX message from buf.
//
// size is the total message length computed from the frame header. When the
// result is Incomplete the supplied slice was shorter than that, and the
// caller must re-invoke with at least size bytes. A checksummed NAV-TIMEGPS
// frame classifies as GPSTime even when its internal validity bits are
// clear; those bits only gate whether the shared time state becomes usable.
func (p *Parser) DecodeUBX(buf []byte) (cls Classification, size int) {
	if len(buf) < ubxMinLen {
		return Ignored, 0
	}
	if buf[0] != UbxSync1 || buf[1] != UbxSync2 {
		return Ignored, 0
	}

	payloadLen := int(binary.LittleEndian.Uint16(buf[4:6]))
	size = ubxHeaderLen + payloadLen + ubxChecksumLen
	if size > len(buf) {
		return Incomplete, size
	}

	ckA, ckB := ubxChecksum(buf[2 : ubxHeaderLen+payloadLen])
	if ckA != buf[size-2] || ckB != buf[size-1] {
		return Invalid, size
	}

	class, id := buf[2], buf[3]
	switch {
	case class == UbxClassNav && id == UbxIDTimeGPS:
		if payloadLen < ubxTimeGPSLen {
			return Ignored, size
		}
		payload := buf[ubxHeaderLen:]
		// towValid and weekValid bits.
		if payload[11]&0x03 != 0 {
			p.iTOW = binary.LittleEndian.Uint32(payload[0:4])
			p.fTOW = int32(binary.LittleEndian.Uint32(payload[4:8]))
			p.week = int16(binary.LittleEndian.Uint16(payload[8:10]))
			p.timeOK = true
		} else {
			p.timeOK = false
		}
		return GPSTime, size

	case class == UbxClassAck:
		return Ignored, size

	default:
		return Ignored, size
	}
}

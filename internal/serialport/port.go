// Package serialport manages the raw serial link to the GNSS receiver:
// opening the tty in raw 8N1 mode, restoring its original settings on
// close, and splitting the incoming byte stream into candidate NMEA
// sentences and UBX frames.
package serialport

import (
	"errors"
	"os"

	"github.com/batuhanky/gnss-timesync/internal/gnss"
	"github.com/batuhanky/gnss-timesync/pkg/logger"
)

// ErrClosed is returned for operations on a closed port.
var ErrClosed = errors.New("serialport: port closed")

// Port is an open serial connection to a GNSS receiver. Not safe for
// concurrent use.
type Port struct {
	file    *os.File
	restore func() error
}

// Open opens the serial device in raw 8N1 mode at the given baud rate. The
// previous terminal settings are saved and reinstated by Close.
func Open(device string, baud int) (*Port, error) {
	file, restore, err := openSerial(device, baud)
	if err != nil {
		logger.Error("serialport", "Failed to open serial device", err)
		return nil, err
	}

	logger.InfoFields("serialport", "Serial device opened", map[string]interface{}{
		"device": device,
		"baud":   baud,
	})
	return &Port{file: file, restore: restore}, nil
}

// Read reads available receiver bytes into b, blocking until at least one
// byte arrives or the tty read timer expires.
func (p *Port) Read(b []byte) (int, error) {
	if p.file == nil {
		return 0, ErrClosed
	}
	return p.file.Read(b)
}

// Write sends a command frame to the receiver.
func (p *Port) Write(b []byte) (int, error) {
	if p.file == nil {
		return 0, ErrClosed
	}
	return p.file.Write(b)
}

// EnableNavTimeGPS asks the receiver to emit NAV-TIMEGPS once per second on
// the UART, via a CFG-MSG command.
func (p *Port) EnableNavTimeGPS() error {
	// CFG-MSG payload: msgClass, msgID, then per-port rates
	// (DDC, UART1, UART2, USB, SPI, reserved).
	cmd := gnss.EncodeUBX(0x06, 0x01, []byte{
		gnss.UbxClassNav, gnss.UbxIDTimeGPS,
		0x00, 0x01, 0x01, 0x00, 0x00, 0x00,
	})
	if _, err := p.Write(cmd); err != nil {
		logger.Error("serialport", "Failed to send NAV-TIMEGPS enable command", err)
		return err
	}
	logger.Debug("serialport", "NAV-TIMEGPS periodic message enabled")
	return nil
}

// Close restores the saved terminal settings and closes the device.
func (p *Port) Close() error {
	if p.file == nil {
		return ErrClosed
	}

	var restoreErr error
	if p.restore != nil {
		restoreErr = p.restore()
	}
	closeErr := p.file.Close()
	p.file = nil

	if restoreErr != nil {
		logger.Error("serialport", "Failed to restore terminal settings", restoreErr)
		return restoreErr
	}
	return closeErr
}

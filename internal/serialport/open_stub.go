//go:build !linux

package serialport

import (
	"fmt"
	"os"
)

func openSerial(path string, baud int) (*os.File, func() error, error) {
	return nil, nil, fmt.Errorf("gnss serial not supported on this platform")
}

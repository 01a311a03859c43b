package maskdump

import (
	"io"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// OpenSerial opens a serial device at baudRate with 8N1 framing. It's a
// variable in case you need to override it during tests.
var OpenSerial = func(devicePath string, baudRate int) (io.ReadWriteCloser, error) {
	port, err := serial.Open(devicePath, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open serial port %s", devicePath)
	}
	return port, nil
}

package console

import (
	"fmt"
	"strings"

	"go.bug.st/serial"

	"github.com/harborlabs/dockscale/pkg/log"
)

// DefaultBaudRate matches the console speed of the dock controller boards.
const DefaultBaudRate = 115200

// OpenPort opens the named serial port as a command source.
func OpenPort(name string, baudRate int, logger log.Logger) (*Source, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		if names, listErr := Ports(); listErr == nil && len(names) > 0 {
			return nil, fmt.Errorf("open serial port %s (available: %s): %w", name, strings.Join(names, ", "), err)
		}
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return NewReader(port, logger), nil
}

// Ports lists the serial port names available on this host.
func Ports() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return names, nil
}

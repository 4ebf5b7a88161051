package scale

import (
	"fmt"
	"log"
	"time"

	"go.bug.st/serial"
)

// readPoll is the port read timeout; request loops until its own deadline.
const readPoll = 100 * time.Millisecond

// Open opens the serial port at baud 8N1 and waits openDelay for the
// microcontroller to come out of the reset triggered by opening the port.
func Open(port string, baud int, timeout, openDelay time.Duration) (*Client, error) {
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	if err := p.SetReadTimeout(readPoll); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	time.Sleep(openDelay)
	if err := p.ResetInputBuffer(); err != nil {
		log.Printf("scale: reset input buffer: %v", err)
	}
	log.Printf("scale: opened %s at %d baud", port, baud)
	return NewClient(p, timeout), nil
}

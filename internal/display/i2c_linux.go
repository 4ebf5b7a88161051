//go:build linux

package display

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const i2cSlave = 0x0703

// i2cDevice is one slave address on a Linux i2c-dev bus.
type i2cDevice struct {
	fd int
}

// OpenI2C opens bus (e.g. /dev/i2c-1) and binds it to addr.
func OpenI2C(bus string, addr uint16) (ByteWriter, error) {
	fd, err := unix.Open(bus, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", bus, err)
	}
	if err := unix.IoctlSetInt(fd, i2cSlave, int(addr)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind i2c address 0x%02x: %w", addr, err)
	}
	// probe so a missing panel fails here instead of on first write
	buf := make([]byte, 1)
	if _, err := unix.Read(fd, buf); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("probe i2c address 0x%02x: %w", addr, err)
	}
	return &i2cDevice{fd: fd}, nil
}

func (d *i2cDevice) WriteByte(b byte) error {
	if _, err := unix.Write(d.fd, []byte{b}); err != nil {
		return fmt.Errorf("i2c write: %w", err)
	}
	return nil
}

func (d *i2cDevice) Close() error {
	return unix.Close(d.fd)
}

//go:build !linux

package display

import "errors"

// OpenI2C is not available on non-Linux platforms.
func OpenI2C(string, uint16) (ByteWriter, error) {
	return nil, errors.New("display: i2c not supported on this platform (requires Linux)")
}

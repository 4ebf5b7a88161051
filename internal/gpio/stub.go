//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealBank is not available on non-Linux platforms.
type RealBank struct{}

// NewRealBank returns an error on non-Linux platforms.
func NewRealBank() (*RealBank, error) {
	return nil, errUnsupported
}

func (b *RealBank) Input(string, int) (Input, error)       { return nil, errUnsupported }
func (b *RealBank) Output(string, int, int) (Output, error) { return nil, errUnsupported }
func (b *RealBank) Close() error                            { return nil }

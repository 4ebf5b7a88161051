package scale

import (
	"context"
	"errors"
)

// Reading is one scripted ReadWeight result.
type Reading struct {
	Grams int
	Err   error
}

// FakeSensor is a test double returning scripted readings. Exhausted
// readings repeat the last one.
type FakeSensor struct {
	Readings []Reading
	index    int

	Tares     int
	Reads     int
	TareError error
	Closed    bool
}

// NewFakeSensor creates a FakeSensor returning the given grams in order.
func NewFakeSensor(grams ...int) *FakeSensor {
	f := &FakeSensor{}
	for _, g := range grams {
		f.Readings = append(f.Readings, Reading{Grams: g})
	}
	return f
}

// Tare counts the call.
func (f *FakeSensor) Tare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Tares++
	return f.TareError
}

// ReadWeight returns the next scripted reading.
func (f *FakeSensor) ReadWeight(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(f.Readings) == 0 {
		return 0, errors.New("no readings configured")
	}
	f.Reads++
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r.Grams, r.Err
}

// Close marks the sensor closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

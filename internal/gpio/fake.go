package gpio

import (
	"errors"
	"fmt"
)

// FakeLine is a test double for one line. As an input it returns
// scripted Samples, repeating the last one; with no samples it returns
// Level. As an output it records what was written.
type FakeLine struct {
	Chip   string
	Offset int
	Output bool

	Samples []int
	index   int

	// Level is the current level of the line. New lines idle High, as
	// pulled-up expander pins do.
	Level int

	// Writes counts SetValue calls; Rising counts low-to-high transitions.
	Writes int
	Rising int

	ReadError  error
	WriteError error
}

// Value returns the next scripted sample, or Level.
func (l *FakeLine) Value() (int, error) {
	if l.ReadError != nil {
		return 0, l.ReadError
	}
	if len(l.Samples) == 0 {
		return l.Level, nil
	}
	v := l.Samples[l.index]
	if l.index < len(l.Samples)-1 {
		l.index++
	}
	return v, nil
}

// SetValue records the write.
func (l *FakeLine) SetValue(v int) error {
	if l.WriteError != nil {
		return l.WriteError
	}
	if l.Level == Low && v == High {
		l.Rising++
	}
	l.Level = v
	l.Writes++
	return nil
}

// Reset rewinds the scripted samples.
func (l *FakeLine) Reset() {
	l.index = 0
}

type lineKey struct {
	chip   string
	offset int
}

// FakeBank hands out FakeLines. Lines can be pre-seeded with Line before
// they are requested.
type FakeBank struct {
	lines map[lineKey]*FakeLine

	// Missing lists "chip/offset" lines whose request fails.
	Missing map[string]bool

	Closed bool
}

// NewFakeBank creates an empty fake bank.
func NewFakeBank() *FakeBank {
	return &FakeBank{lines: make(map[lineKey]*FakeLine), Missing: make(map[string]bool)}
}

// Line returns the fake for chip/offset, creating it if needed.
func (b *FakeBank) Line(chip string, offset int) *FakeLine {
	k := lineKey{chip, offset}
	l, ok := b.lines[k]
	if !ok {
		l = &FakeLine{Chip: chip, Offset: offset, Level: High}
		b.lines[k] = l
	}
	return l
}

// Input returns the fake line for chip/offset.
func (b *FakeBank) Input(chip string, offset int) (Input, error) {
	if b.Missing[fmt.Sprintf("%s/%d", chip, offset)] {
		return nil, errors.New("line unavailable")
	}
	return b.Line(chip, offset), nil
}

// Output returns the fake line for chip/offset driven to initial.
func (b *FakeBank) Output(chip string, offset int, initial int) (Output, error) {
	if b.Missing[fmt.Sprintf("%s/%d", chip, offset)] {
		return nil, errors.New("line unavailable")
	}
	l := b.Line(chip, offset)
	l.Output = true
	l.Level = initial
	return l, nil
}

// Close marks the bank closed and floats outputs high.
func (b *FakeBank) Close() error {
	for _, l := range b.lines {
		if l.Output {
			l.Level = High
		}
	}
	b.Closed = true
	return nil
}

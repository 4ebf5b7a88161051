package display

import (
	"fmt"
	"time"
)

// ByteWriter writes single bytes to an I2C device.
type ByteWriter interface {
	WriteByte(b byte) error
	Close() error
}

// PCF8574 backpack bit assignments.
const (
	bitRS        = 0x01
	bitEnable    = 0x04
	bitBacklight = 0x08
)

// HD44780 commands.
const (
	cmdClear       = 0x01
	cmdEntryMode   = 0x06 // increment, no shift
	cmdDisplayOn   = 0x0C // display on, cursor off
	cmdFunctionSet = 0x28 // 4-bit, 2 lines, 5x8
	cmdSetDDRAM    = 0x80
)

var rowOffsets = [Rows]byte{0x00, 0x40, 0x14, 0x54}

// Panel is a 20x4 HD44780 character LCD driven in 4-bit mode through a
// PCF8574 I2C expander.
type Panel struct {
	dev   ByteWriter
	sleep func(time.Duration)
}

// NewPanel initializes the controller and clears the screen.
func NewPanel(dev ByteWriter, sleep func(time.Duration)) (*Panel, error) {
	p := &Panel{dev: dev, sleep: sleep}
	p.sleep(50 * time.Millisecond)

	// reset into 4-bit mode
	for _, n := range []byte{0x03, 0x03, 0x03, 0x02} {
		if err := p.writeNibble(n<<4, 0); err != nil {
			return nil, fmt.Errorf("lcd init: %w", err)
		}
		p.sleep(5 * time.Millisecond)
	}
	for _, c := range []byte{cmdFunctionSet, cmdDisplayOn, cmdEntryMode} {
		if err := p.command(c); err != nil {
			return nil, fmt.Errorf("lcd init: %w", err)
		}
	}
	if err := p.Clear(); err != nil {
		return nil, fmt.Errorf("lcd init: %w", err)
	}
	return p, nil
}

// Clear blanks the screen.
func (p *Panel) Clear() error {
	if err := p.command(cmdClear); err != nil {
		return err
	}
	p.sleep(2 * time.Millisecond)
	return nil
}

// WriteAt writes text from row, col. Text past the panel edge is dropped.
func (p *Panel) WriteAt(row, col int, text string) error {
	if row < 0 || row >= Rows || col < 0 || col >= Cols {
		return fmt.Errorf("lcd position %d,%d out of range", row, col)
	}
	if err := p.command(cmdSetDDRAM | (rowOffsets[row] + byte(col))); err != nil {
		return err
	}
	if n := Cols - col; len(text) > n {
		text = text[:n]
	}
	for i := 0; i < len(text); i++ {
		if err := p.write(text[i], bitRS); err != nil {
			return err
		}
	}
	return nil
}

// Show replaces the whole screen with lines.
func (p *Panel) Show(lines [Rows]string) error {
	for i, l := range lines {
		if err := p.WriteAt(i, 0, l); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the device.
func (p *Panel) Close() error {
	return p.dev.Close()
}

func (p *Panel) command(c byte) error {
	return p.write(c, 0)
}

func (p *Panel) write(b byte, mode byte) error {
	if err := p.writeNibble(b&0xF0, mode); err != nil {
		return err
	}
	return p.writeNibble((b<<4)&0xF0, mode)
}

func (p *Panel) writeNibble(n byte, mode byte) error {
	v := n | mode | bitBacklight
	if err := p.dev.WriteByte(v | bitEnable); err != nil {
		return err
	}
	return p.dev.WriteByte(v)
}

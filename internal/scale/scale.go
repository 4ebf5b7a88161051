// Package scale talks to the load-cell microcontroller over a serial
// line. The wire format is line oriented: "TARE\n" is answered with
// "TARED", "WEIGHT\n" with "WT,<float>".
package scale

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// Sensor measures grams dispensed since the last tare.
type Sensor interface {
	Tare(ctx context.Context) error
	ReadWeight(ctx context.Context) (int, error)
	Close() error
}

// ErrTimeout is returned when no matching reply arrives in time.
var ErrTimeout = errors.New("scale: reply timeout")

const (
	cmdTare   = "TARE\n"
	cmdWeight = "WEIGHT\n"

	replyTared  = "TARED"
	replyWeight = "WT,"
)

// maxRawWeight bounds the raw reading, far above any load cell's range.
const maxRawWeight = 1e7

// Port is the byte stream under the client. A read that returns 0, nil
// means the port's read timeout elapsed.
type Port interface {
	io.ReadWriteCloser
}

// Client implements Sensor on a Port.
type Client struct {
	port    Port
	timeout time.Duration
	buf     []byte
}

// NewClient wraps port. timeout bounds each request.
func NewClient(port Port, timeout time.Duration) *Client {
	return &Client{port: port, timeout: timeout}
}

// Tare zeroes the scale.
func (c *Client) Tare(ctx context.Context) error {
	if _, err := c.request(ctx, cmdTare, func(line string) bool { return line == replyTared }); err != nil {
		return fmt.Errorf("tare: %w", err)
	}
	return nil
}

// ReadWeight returns the corrected weight in grams. A reply whose value
// does not parse reads as 0.
func (c *Client) ReadWeight(ctx context.Context) (int, error) {
	line, err := c.request(ctx, cmdWeight, func(line string) bool { return strings.HasPrefix(line, replyWeight) })
	if err != nil {
		return 0, fmt.Errorf("read weight: %w", err)
	}
	grams, err := ParseWeight(line)
	if err != nil {
		log.Printf("scale: %v", err)
		return 0, nil
	}
	return grams, nil
}

// Close closes the port.
func (c *Client) Close() error {
	return c.port.Close()
}

// request writes cmd and returns the first reply line accepted by match.
// Other lines are skipped.
func (c *Client) request(ctx context.Context, cmd string, match func(string) bool) (string, error) {
	c.buf = c.buf[:0]
	if _, err := io.WriteString(c.port, cmd); err != nil {
		return "", fmt.Errorf("write %q: %w", strings.TrimSpace(cmd), err)
	}

	deadline := time.Now().Add(c.timeout)
	chunk := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for {
			i := bytes.IndexByte(c.buf, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimSpace(string(c.buf[:i]))
			c.buf = c.buf[i+1:]
			if match(line) {
				return line, nil
			}
		}
		if !time.Now().Before(deadline) {
			return "", ErrTimeout
		}

		n, err := c.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
		c.buf = append(c.buf, chunk[:n]...)
	}
}

// ParseWeight decodes a "WT,<float>" line and applies the load-cell
// correction ceil(v/10)*10/2.
func ParseWeight(line string) (int, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(line), replyWeight)
	if !ok {
		return 0, fmt.Errorf("unexpected reply %q", line)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid weight %q", raw)
	}
	if math.Abs(v) > maxRawWeight {
		return 0, fmt.Errorf("weight %q out of range", raw)
	}
	return int(math.Ceil(v/10) * 10 / 2), nil
}

package scale

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePort answers requests from a script keyed by command.
type pipePort struct {
	replies map[string]string
	written bytes.Buffer
	pending bytes.Buffer
	closed  bool
}

func (p *pipePort) Write(b []byte) (int, error) {
	p.written.Write(b)
	p.pending.WriteString(p.replies[string(b)])
	return len(b), nil
}

func (p *pipePort) Read(b []byte) (int, error) {
	if p.pending.Len() == 0 {
		return 0, nil
	}
	// dribble a few bytes at a time like a real UART
	if len(b) > 3 {
		b = b[:3]
	}
	return p.pending.Read(b)
}

func (p *pipePort) Close() error {
	p.closed = true
	return nil
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"WT,0", 0},
		{"WT,1000", 500},
		{"WT,2000.0", 1000},
		{"WT,1995.2", 1000},
		{"WT,1991", 1000},
		{"WT,1990", 995},
		{"WT,-40", -20},
		{" WT, 600 ", 300},
	}
	for _, tt := range tests {
		got, err := ParseWeight(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, got, tt.line)
	}
}

func TestParseWeightInvalid(t *testing.T) {
	for _, line := range []string{"WT,", "WT,abc", "WT,NaN", "WT,1e300", "WT,-1e300", "WT,10000001", "TARED", ""} {
		_, err := ParseWeight(line)
		assert.Error(t, err, line)
	}
}

func TestClientTare(t *testing.T) {
	p := &pipePort{replies: map[string]string{"TARE\n": "booting\r\nTARED\r\n"}}
	c := NewClient(p, time.Second)

	require.NoError(t, c.Tare(context.Background()))
	assert.Equal(t, "TARE\n", p.written.String())
}

func TestClientReadWeightSkipsOtherLines(t *testing.T) {
	p := &pipePort{replies: map[string]string{"WEIGHT\n": "HX711 ready\nWT,600.4\n"}}
	c := NewClient(p, time.Second)

	g, err := c.ReadWeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 305, g)
}

func TestClientReadWeightUnparseableIsZero(t *testing.T) {
	p := &pipePort{replies: map[string]string{"WEIGHT\n": "WT,garbage\n"}}
	c := NewClient(p, time.Second)

	g, err := c.ReadWeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, g)
}

func TestClientReadWeightOutOfRangeIsZero(t *testing.T) {
	p := &pipePort{replies: map[string]string{"WEIGHT\n": "WT,1e300\n"}}
	c := NewClient(p, time.Second)

	g, err := c.ReadWeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, g)
}

func TestClientTimeout(t *testing.T) {
	p := &pipePort{replies: map[string]string{}}
	c := NewClient(p, 20*time.Millisecond)

	err := c.Tare(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClientCancelled(t *testing.T) {
	p := &pipePort{replies: map[string]string{}}
	c := NewClient(p, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ReadWeight(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type brokenPort struct{ pipePort }

func (brokenPort) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestClientReadError(t *testing.T) {
	c := NewClient(&brokenPort{}, time.Second)
	err := c.Tare(context.Background())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestClientClose(t *testing.T) {
	p := &pipePort{}
	require.NoError(t, NewClient(p, time.Second).Close())
	assert.True(t, p.closed)
}

func TestFakeSensor(t *testing.T) {
	f := NewFakeSensor(300, 700)
	f.Readings = append(f.Readings, Reading{Err: errors.New("glitch")})
	ctx := context.Background()

	require.NoError(t, f.Tare(ctx))
	g, _ := f.ReadWeight(ctx)
	assert.Equal(t, 300, g)
	g, _ = f.ReadWeight(ctx)
	assert.Equal(t, 700, g)
	_, err := f.ReadWeight(ctx)
	assert.Error(t, err)
	_, err = f.ReadWeight(ctx)
	assert.Error(t, err, "last reading repeats")
	assert.Equal(t, 1, f.Tares)
	assert.Equal(t, 4, f.Reads)
}

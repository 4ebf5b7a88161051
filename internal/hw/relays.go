package hw

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/sweeney/fpj-maker/internal/clock"
	"github.com/sweeney/fpj-maker/internal/config"
	"github.com/sweeney/fpj-maker/internal/gpio"
)

// Relays is the relay board.
type Relays struct {
	relays map[string]*Relay
	order  []string
	clock  clock.Clock
}

// NewRelays requests every allocated relay off. Relays that fail are
// logged and left unavailable. Expander lines with no function are
// driven off as well.
func NewRelays(bank gpio.Bank, chip string, pins map[string]int, clk clock.Clock) *Relays {
	rs := &Relays{relays: make(map[string]*Relay), clock: clk}

	used := make(map[int]bool)
	for name, off := range pins {
		rs.order = append(rs.order, name)
		used[off] = true
	}
	sort.Strings(rs.order)

	for _, name := range rs.order {
		out, err := bank.Output(chip, pins[name], gpio.High)
		if err != nil {
			log.Printf("hw: relay %s unavailable: %v", name, err)
			out = nil
		}
		rs.relays[name] = &Relay{Line: NewLine(name, out), clock: clk}
	}

	for off := 0; off < config.ExpanderLines; off++ {
		if used[off] {
			continue
		}
		if _, err := bank.Output(chip, off, gpio.High); err != nil {
			log.Printf("hw: unused relay line %d: %v", off, err)
		}
	}
	return rs
}

// Get returns the named relay. Unknown names return an unavailable relay.
func (rs *Relays) Get(name string) *Relay {
	if r, ok := rs.relays[name]; ok {
		return r
	}
	return &Relay{Line: NewLine(name, nil), clock: rs.clock}
}

// Names lists the allocated relays in sorted order.
func (rs *Relays) Names() []string {
	return append([]string(nil), rs.order...)
}

// ShutdownAll switches every relay off, attempting all of them.
func (rs *Relays) ShutdownAll() error {
	var errs []error
	for _, name := range rs.order {
		if err := rs.relays[name].Off(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Chopper latches the chopper relay: enabling a running chopper and
// disabling a stopped one are no-ops.
type Chopper struct {
	relay   *Relay
	running bool
}

// NewChopper wraps the chopper relay.
func NewChopper(r *Relay) *Chopper {
	return &Chopper{relay: r}
}

// Running reports the latch state.
func (c *Chopper) Running() bool { return c.running }

// Enable starts the chopper.
func (c *Chopper) Enable() error {
	if c.running {
		log.Printf("hw: chopper already running")
		return nil
	}
	if err := c.relay.On(); err != nil {
		return fmt.Errorf("chopper on: %w", err)
	}
	c.running = true
	return nil
}

// Disable stops the chopper.
func (c *Chopper) Disable() error {
	if !c.running {
		return nil
	}
	if err := c.relay.Off(); err != nil {
		return fmt.Errorf("chopper off: %w", err)
	}
	c.running = false
	return nil
}

// Power is a supply relay that needs time to settle after switching.
type Power struct {
	relay   *Relay
	settle  time.Duration
	enabled bool
}

// NewPower wraps a supply relay.
func NewPower(r *Relay, settle time.Duration) *Power {
	return &Power{relay: r, settle: settle}
}

// Enabled reports whether the supply is on.
func (p *Power) Enabled() bool { return p.enabled }

// Enable switches the supply on and waits for it to settle.
func (p *Power) Enable(ctx context.Context) error {
	if p.enabled {
		return nil
	}
	if err := p.relay.On(); err != nil {
		return err
	}
	p.enabled = true
	log.Printf("hw: %s on", p.relay.Name())
	return p.relay.clock.Sleep(ctx, p.settle)
}

// Disable switches the supply off and waits for it to settle.
func (p *Power) Disable(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	if err := p.relay.Off(); err != nil {
		return err
	}
	p.enabled = false
	log.Printf("hw: %s off", p.relay.Name())
	return p.relay.clock.Sleep(ctx, p.settle)
}

// Package hx711 drives an HX711 24-bit load-cell amplifier through two
// GPIO lines: a clock output (PD_SCK) and a data input (DOUT).
//
// The protocol is bit-banged. A conversion is ready when DOUT goes low;
// the host then clocks out 24 data bits MSB first and appends one to
// three extra pulses to select the gain of the next conversion.
package hx711

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// readyPollInterval is how often DOUT is sampled while waiting for a
// conversion. The chip produces 10 or 80 samples per second.
const readyPollInterval = time.Millisecond

// Gain selects the input channel and amplification of the next conversion.
type Gain int

const (
	Gain128 Gain = 128 // channel A, 25 pulses per frame
	Gain64  Gain = 64  // channel A, 27 pulses per frame
	Gain32  Gain = 32  // channel B, 26 pulses per frame
)

// pulses returns the clock pulses appended after the 24 data bits.
func (g Gain) pulses() int {
	switch g {
	case Gain64:
		return 3
	case Gain32:
		return 2
	default:
		return 1
	}
}

func (g Gain) valid() bool {
	return g == Gain128 || g == Gain64 || g == Gain32
}

// Opts configures a Dev.
type Opts struct {
	// Gain is the amplifier gain. Defaults to Gain128.
	Gain Gain

	// Scale is the initial calibration factor in raw counts per gram.
	// Defaults to 1 (raw counts pass through).
	Scale float64
}

// Dev is an open HX711 device. It holds the tare offset and scale factor,
// so ReadAverage returns calibrated grams. Safe for concurrent use.
type Dev struct {
	mu     sync.Mutex
	clk    gpio.PinIO
	data   gpio.PinIO
	gain   Gain
	scale  float64
	offset float64
}

// New wires a driver onto already-configured pins. The clock pin must be
// an output driven low, the data pin an input. Most callers want Open.
func New(clk, data gpio.PinIO, opts Opts) (*Dev, error) {
	if opts.Gain == 0 {
		opts.Gain = Gain128
	}
	if !opts.Gain.valid() {
		return nil, fmt.Errorf("hx711: invalid gain %d", opts.Gain)
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	return &Dev{clk: clk, data: data, gain: opts.Gain, scale: opts.Scale}, nil
}

// Open resolves the named pins through the host GPIO registry and
// initializes them for the protocol.
func Open(clkPin, dataPin string, opts Opts) (*Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	clk := gpioreg.ByName(clkPin)
	if clk == nil {
		return nil, fmt.Errorf("hx711: no such pin %q", clkPin)
	}
	data := gpioreg.ByName(dataPin)
	if data == nil {
		return nil, fmt.Errorf("hx711: no such pin %q", dataPin)
	}
	if err := data.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure data pin: %w", err)
	}
	if err := clk.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure clock pin: %w", err)
	}
	return New(clk, data, opts)
}

// Ready reports whether a conversion is available. DOUT low means ready.
func (d *Dev) Ready() bool {
	return d.data.Read() == gpio.Low
}

// ReadAverage takes n raw samples, averages them, and applies the tare
// offset and scale factor. The result is in grams. Blocks until n
// conversions have been clocked out or ctx is canceled.
func (d *Dev) ReadAverage(ctx context.Context, n int) (float64, error) {
	if n <= 0 {
		n = 1
	}
	avg, err := d.readAverageRaw(ctx, n)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return (avg - d.offset) / d.scale, nil
}

// SetScale sets the calibration factor in raw counts per gram.
func (d *Dev) SetScale(factor float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scale = factor
}

// Tare sets the tare offset from an n-sample raw average, so that the
// current (unloaded) platform reads near zero.
func (d *Dev) Tare(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}
	avg, err := d.readAverageRaw(ctx, n)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offset = avg
	return nil
}

// Close powers the chip down (clock held high) and releases the pins.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.clk.Out(gpio.High); err != nil {
		return fmt.Errorf("power down: %w", err)
	}
	if err := d.data.Halt(); err != nil {
		return err
	}
	return d.clk.Halt()
}

func (d *Dev) readAverageRaw(ctx context.Context, n int) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var sum int64
	for i := 0; i < n; i++ {
		if err := d.waitReady(ctx); err != nil {
			return 0, err
		}
		raw, err := d.readRaw()
		if err != nil {
			return 0, err
		}
		sum += int64(raw)
	}
	return float64(sum) / float64(n), nil
}

// waitReady polls DOUT until a conversion is available. Caller holds mu.
func (d *Dev) waitReady(ctx context.Context) error {
	for d.data.Read() == gpio.High {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
	return nil
}

// readRaw clocks out one 24-bit two's-complement frame plus the gain
// pulses for the next conversion. Caller holds mu and has seen DOUT low.
func (d *Dev) readRaw() (int32, error) {
	var raw uint32
	for i := 0; i < 24; i++ {
		if err := d.clk.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("clock high: %w", err)
		}
		raw <<= 1
		if d.data.Read() == gpio.High {
			raw |= 1
		}
		if err := d.clk.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("clock low: %w", err)
		}
	}
	for i := 0; i < d.gain.pulses(); i++ {
		if err := d.clk.Out(gpio.High); err != nil {
			return 0, fmt.Errorf("gain pulse: %w", err)
		}
		if err := d.clk.Out(gpio.Low); err != nil {
			return 0, fmt.Errorf("gain pulse: %w", err)
		}
	}
	// Sign-extend the 24-bit value.
	return int32(raw<<8) >> 8, nil
}

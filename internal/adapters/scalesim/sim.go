// Package scalesim provides a simulated load-cell platform implementing
// the same contract as the hardware driver. It backs development on
// machines without GPIO and deterministic tests.
package scalesim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/harborlabs/dockscale/internal/ports"
)

// Opts configures the simulation.
type Opts struct {
	// Grams is the initial load on the platform.
	Grams float64

	// Noise is the peak deviation in raw counts added to each sample.
	Noise float64

	// Scale is the initial calibration factor (counts per gram). It is
	// also used as the true counts-per-gram of the simulated cell, so a
	// freshly tared simulation reads Grams back exactly. Defaults to 1.
	Scale float64

	// Baseline is the raw reading of the empty platform before taring.
	Baseline float64

	// Seed makes the noise deterministic when nonzero.
	Seed int64
}

// Sim is a simulated load-cell amplifier. Always ready.
type Sim struct {
	mu       sync.Mutex
	grams    float64
	noise    float64
	perGram  float64 // true counts per gram of the simulated cell
	baseline float64
	scale    float64 // conversion factor, adjusted by calibration
	offset   float64 // tare offset in raw counts
	rnd      *rand.Rand
}

// New creates a simulated platform.
func New(opts Opts) *Sim {
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sim{
		grams:    opts.Grams,
		noise:    opts.Noise,
		perGram:  opts.Scale,
		baseline: opts.Baseline,
		scale:    opts.Scale,
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

// Ready always reports true; the simulation has no conversion latency.
func (s *Sim) Ready() bool { return true }

// ReadAverage returns the simulated load in calibrated units.
func (s *Sim) ReadAverage(ctx context.Context, n int) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rawAverage(n) - s.offset) / s.scale, nil
}

// SetScale sets the conversion factor, as calibration does on hardware.
func (s *Sim) SetScale(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = factor
}

// Tare zeroes the platform at its current load.
func (s *Sim) Tare(ctx context.Context, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = s.rawAverage(n)
	return nil
}

// Close is a no-op.
func (s *Sim) Close() error { return nil }

// SetGrams places or removes load, for tests and demos.
func (s *Sim) SetGrams(g float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grams = g
}

// rawAverage simulates n raw samples. Caller holds mu.
func (s *Sim) rawAverage(n int) float64 {
	if n <= 0 {
		n = 1
	}
	var sum float64
	for i := 0; i < n; i++ {
		sample := s.baseline + s.grams*s.perGram
		if s.noise > 0 {
			sample += (s.rnd.Float64()*2 - 1) * s.noise
		}
		sum += sample
	}
	return sum / float64(n)
}

var _ ports.Scale = (*Sim)(nil)

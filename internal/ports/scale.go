package ports

import "context"

// Scale is the load-cell amplifier driver. Implementations hold the tare
// offset internally; ReadAverage returns calibrated units (grams).
type Scale interface {
	// Ready reports whether a conversion is available to read. Callers
	// skip the cycle when false; readings are never queued.
	Ready() bool

	// ReadAverage takes n raw samples, averages them, and applies the
	// tare offset and scale factor. Blocks until n samples have been
	// read or ctx is canceled.
	ReadAverage(ctx context.Context, n int) (float64, error)

	// SetScale sets the calibration factor (raw counts per gram).
	SetScale(factor float64)

	// Tare sets the tare offset from an n-sample raw average, so that an
	// unloaded platform reads near zero.
	Tare(ctx context.Context, n int) error

	// Close releases the underlying hardware.
	Close() error
}

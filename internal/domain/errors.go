package domain

import "errors"

// Domain errors cover the embedding API surface. Loop-level failures
// (identity not found, write failed) are intentionally not errors: they
// degrade to log lines and a skipped cycle, and no caller inspects them.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("dockscale: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("dockscale: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("dockscale: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("dockscale: invalid configuration")

	// ErrScaleNotReady is returned when a reading is requested before the
	// converter has a sample available.
	ErrScaleNotReady = errors.New("dockscale: scale not ready")
)

package ports

import "context"

// Connectivity is the startup network probe. The agent spin-waits on it
// before entering the loop, mirroring firmware that blocks until its
// network join completes.
type Connectivity interface {
	// Connected reports whether the store endpoint is reachable. Any
	// timeout behavior belongs to the underlying dialer, not the caller.
	Connected(ctx context.Context) bool
}

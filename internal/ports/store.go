package ports

import "context"

// Store is the remote key-value store the agent reports to. Paths are
// slash-separated and relative to the store root, e.g. "docks/pier-4/weight".
//
// Both calls block for the duration of the network round trip; the agent
// issues them only from the publish worker.
type Store interface {
	// GetString reads the raw JSON text at path. Absent keys yield the
	// literal "null" (the store's convention), not an error.
	GetString(ctx context.Context, path string) (string, error)

	// SetFloat writes a single float value at path, replacing whatever
	// was there.
	SetFloat(ctx context.Context, path string, value float64) error
}

package app

import (
	"context"
	"time"

	"github.com/harborlabs/dockscale/internal/domain"
	"github.com/harborlabs/dockscale/internal/ports"
	"github.com/harborlabs/dockscale/pkg/log"
)

// Gate decides whether the dock identity is registered in the store.
// A successful check is cached on the session; the cache holds until
// the session is explicitly invalidated. Failed checks are never
// cached, so the next publish attempt asks the store again.
type Gate struct {
	store  ports.Store
	path   string
	logger log.Logger
}

// NewGate creates a gate that checks the given store path.
func NewGate(store ports.Store, path string, logger log.Logger) *Gate {
	return &Gate{
		store:  store,
		path:   path,
		logger: logger,
	}
}

// Verify reports whether the dock identity exists in the store.
// When the session already holds a verified result the store is not
// contacted at all.
func (g *Gate) Verify(ctx context.Context, session *domain.Session) bool {
	if session.Verified() {
		return true
	}

	value, err := g.store.GetString(ctx, g.path)
	if err != nil {
		g.logger.Error("identity check failed",
			log.String("path", g.path),
			log.Err(err),
		)
		return false
	}

	if absent(value) {
		g.logger.Warn("dock identity not registered",
			log.String("path", g.path),
		)
		return false
	}

	session.MarkVerified(time.Now())
	g.logger.Info("dock identity verified",
		log.String("path", g.path),
	)
	return true
}

// absent reports whether a store read means the key does not exist.
// The store returns an empty body for missing auth and the literal
// string "null" for a missing key.
func absent(value string) bool {
	return value == "" || value == "null"
}

package app

import (
	"context"
	"time"

	"github.com/harborlabs/dockscale/internal/domain"
	"github.com/harborlabs/dockscale/internal/ports"
	"github.com/harborlabs/dockscale/pkg/log"
)

// publisher pushes measurements to the store from its own goroutine so
// a slow network round-trip never stalls the sampling loop. It holds at
// most one pending measurement; a newer reading replaces an older one
// that has not been sent yet.
type publisher struct {
	store   ports.Store
	gate    *Gate
	session *domain.Session
	path    string
	logger  log.Logger
	emitter *PublishEventEmitter

	mail chan domain.Measurement
}

func newPublisher(store ports.Store, gate *Gate, session *domain.Session, path string, logger log.Logger, emitter *PublishEventEmitter) *publisher {
	return &publisher{
		store:   store,
		gate:    gate,
		session: session,
		path:    path,
		logger:  logger,
		emitter: emitter,
		mail:    make(chan domain.Measurement, 1),
	}
}

// Offer hands a measurement to the publish worker without blocking.
// If a stale measurement is still waiting it is dropped in favor of
// the new one.
func (p *publisher) Offer(m domain.Measurement) {
	for {
		select {
		case p.mail <- m:
			return
		default:
		}
		select {
		case <-p.mail:
		default:
		}
	}
}

// run consumes the mailbox until the context is canceled.
func (p *publisher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-p.mail:
			p.publish(ctx, m)
		}
	}
}

// publish performs one attempt: verify the dock identity if needed,
// then write the weight. There are no retries; a failed attempt is
// logged and the next measurement tries again.
func (p *publisher) publish(ctx context.Context, m domain.Measurement) {
	wasVerified := p.session.Verified()
	if !p.gate.Verify(ctx, p.session) {
		p.logger.Warn("publish skipped, dock not verified",
			log.Float64("kilograms", m.Kilograms),
		)
		if p.emitter != nil && p.emitter.OnVerify != nil {
			p.emitter.OnVerify(false)
		}
		return
	}
	if !wasVerified && p.emitter != nil && p.emitter.OnVerify != nil {
		p.emitter.OnVerify(true)
	}

	start := time.Now()
	if err := p.store.SetFloat(ctx, p.path, m.Kilograms); err != nil {
		p.logger.Error("publish failed",
			log.String("path", p.path),
			log.Float64("kilograms", m.Kilograms),
			log.Err(err),
		)
		if p.emitter != nil && p.emitter.OnPublishError != nil {
			p.emitter.OnPublishError(err, m)
		}
		// The verified cache survives a write failure; only an
		// explicit reverify command clears it.
		return
	}

	elapsed := time.Since(start)
	p.logger.Info("weight published",
		log.String("path", p.path),
		log.Float64("kilograms", m.Kilograms),
		log.Duration("took", elapsed),
	)
	if p.emitter != nil && p.emitter.OnPublishSuccess != nil {
		p.emitter.OnPublishSuccess(m, elapsed)
	}
}

package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harborlabs/dockscale/internal/domain"
	"github.com/harborlabs/dockscale/internal/ports"
	"github.com/harborlabs/dockscale/pkg/log"
)

const basePath = "docks"

func dockPath(id string) string   { return basePath + "/" + id }
func weightPath(id string) string { return dockPath(id) + "/weight" }

// AgentConfig holds the runtime configuration for the agent.
type AgentConfig struct {
	// DockID names this dock in the store.
	DockID string

	// ScaleFactor converts raw converter counts to grams.
	ScaleFactor float64

	// Samples is the number of raw reads averaged per measurement.
	Samples int

	// ReadInterval is the pause between measurements.
	ReadInterval time.Duration

	// PublishInterval is the minimum time between publish attempts.
	PublishInterval time.Duration

	// CalReadInterval is the pause between live readings in calibration.
	CalReadInterval time.Duration

	// CalStep is the factor adjustment applied per step command.
	CalStep float64

	// NetCheckInterval is the pause between connectivity probes at boot.
	NetCheckInterval time.Duration

	// Once makes the agent publish a single measurement and exit.
	Once bool

	// EchoReadings raises per-measurement logging to info level.
	EchoReadings bool
}

// PublishEventEmitter carries optional callbacks fired by the agent.
// Nil callbacks are skipped.
type PublishEventEmitter struct {
	OnMeasurement    func(m domain.Measurement)
	OnPublishSuccess func(m domain.Measurement, took time.Duration)
	OnPublishError   func(err error, m domain.Measurement)
	OnVerify         func(verified bool)
}

// Agent samples the scale, reacts to operator commands and hands
// measurements to the publish worker.
type Agent struct {
	config  AgentConfig
	scale   ports.Scale
	store   ports.Store
	source  ports.CommandSource
	net     ports.Connectivity
	logger  log.Logger
	emitter *PublishEventEmitter

	session   *domain.Session
	gate      *Gate
	publisher *publisher
}

// NewAgent creates an agent. The command source and connectivity probe
// may be nil; the agent then runs headless and skips the network wait.
func NewAgent(config AgentConfig, scale ports.Scale, store ports.Store, source ports.CommandSource, net ports.Connectivity, logger log.Logger, emitter *PublishEventEmitter) *Agent {
	session := domain.NewSession(config.ScaleFactor)
	gate := NewGate(store, dockPath(config.DockID), logger)
	pub := newPublisher(store, gate, session, weightPath(config.DockID), logger, emitter)

	return &Agent{
		config:    config,
		scale:     scale,
		store:     store,
		source:    source,
		net:       net,
		logger:    logger,
		emitter:   emitter,
		session:   session,
		gate:      gate,
		publisher: pub,
	}
}

// Run executes the agent loop until the context is canceled. The scale
// is configured and tared once before the first measurement.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.waitForNetwork(ctx); err != nil {
		return err
	}

	a.scale.SetScale(a.session.ScaleFactor())
	if err := a.scale.Tare(ctx, a.config.Samples); err != nil {
		return fmt.Errorf("initial tare: %w", err)
	}
	a.logger.Info("scale tared",
		log.Float64("factor", a.session.ScaleFactor()),
		log.Int("samples", a.config.Samples),
	)

	if a.config.Once {
		return a.runOnce(ctx)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.publisher.run(ctx)
	}()
	defer wg.Wait()

	var commands <-chan domain.Command
	if a.source != nil {
		commands = a.source.Commands()
	}

	var lastPublish time.Time
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("agent stopped")
			return nil
		case cmd, ok := <-commands:
			if !ok {
				a.logger.Warn("command source closed")
				commands = nil
				continue
			}
			a.handleCommand(ctx, cmd, commands)
		case <-time.After(a.config.ReadInterval):
			m, err := a.readMeasurement(ctx)
			if err != nil {
				continue
			}
			a.echo(m)
			if lastPublish.IsZero() || time.Since(lastPublish) >= a.config.PublishInterval {
				a.publisher.Offer(m)
				lastPublish = time.Now()
			}
		}
	}
}

// runOnce takes a single measurement and publishes it synchronously.
func (a *Agent) runOnce(ctx context.Context) error {
	for {
		m, err := a.readMeasurement(ctx)
		if err == nil {
			a.publisher.publish(ctx, m)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.config.ReadInterval):
		}
	}
}

// readMeasurement averages the configured number of samples and
// converts the result to kilograms.
func (a *Agent) readMeasurement(ctx context.Context) (domain.Measurement, error) {
	if !a.scale.Ready() {
		a.logger.Debug("scale not ready")
		return domain.Measurement{}, domain.ErrScaleNotReady
	}

	grams, err := a.scale.ReadAverage(ctx, a.config.Samples)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Error("scale read failed", log.Err(err))
		}
		return domain.Measurement{}, err
	}

	m := domain.Measurement{
		Kilograms: grams / 1000,
		TakenAt:   time.Now(),
	}
	if a.emitter != nil && a.emitter.OnMeasurement != nil {
		a.emitter.OnMeasurement(m)
	}
	return m, nil
}

func (a *Agent) handleCommand(ctx context.Context, cmd domain.Command, commands <-chan domain.Command) {
	switch cmd {
	case domain.CmdTare:
		if err := a.scale.Tare(ctx, a.config.Samples); err != nil {
			a.logger.Error("tare failed", log.Err(err))
			return
		}
		a.logger.Info("scale tared", log.Int("samples", a.config.Samples))
	case domain.CmdCalibrate:
		a.runCalibration(ctx, commands)
	case domain.CmdReverify:
		a.session.Invalidate()
		a.logger.Info("verification cache cleared")
	default:
		a.logger.Debug("command ignored",
			log.String("command", cmd.String()),
		)
	}
}

func (a *Agent) echo(m domain.Measurement) {
	if a.config.EchoReadings {
		a.logger.Info("weight", log.Float64("kilograms", m.Kilograms))
		return
	}
	a.logger.Debug("weight", log.Float64("kilograms", m.Kilograms))
}

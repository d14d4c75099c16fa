package app

import (
	"context"
	"time"

	"github.com/harborlabs/dockscale/internal/domain"
	"github.com/harborlabs/dockscale/pkg/log"
)

// runCalibration owns the command stream until the operator commits.
// Step commands adjust a working copy of the scale factor and apply it
// to the driver right away so live readings reflect the change.
// Down-steps that would take the factor to zero or below are refused;
// the driver divides by the factor. The factor is written back to the
// session on exit; a canceled context abandons the adjustment.
func (a *Agent) runCalibration(ctx context.Context, commands <-chan domain.Command) {
	working := a.session.ScaleFactor()
	a.logger.Info("calibration started",
		log.Float64("factor", working),
		log.Float64("step", a.config.CalStep),
	)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("calibration aborted")
			return
		case cmd, ok := <-commands:
			if !ok {
				a.commitFactor(working)
				return
			}
			switch cmd {
			case domain.CmdStepUp:
				working += a.config.CalStep
				a.applyFactor(working)
			case domain.CmdStepDown:
				if next := working - a.config.CalStep; next > 0 {
					working = next
					a.applyFactor(working)
				} else {
					a.logger.Warn("step ignored, scale factor must stay positive",
						log.Float64("factor", working),
					)
				}
			case domain.CmdExit:
				a.commitFactor(working)
				return
			default:
				a.logger.Debug("command ignored during calibration",
					log.String("command", cmd.String()),
				)
			}
		case <-time.After(a.config.CalReadInterval):
			m, err := a.readMeasurement(ctx)
			if err != nil {
				continue
			}
			a.logger.Info("calibration reading",
				log.Float64("kilograms", m.Kilograms),
				log.Float64("factor", working),
			)
		}
	}
}

func (a *Agent) applyFactor(factor float64) {
	a.scale.SetScale(factor)
	a.logger.Info("scale factor adjusted",
		log.Float64("factor", factor),
	)
}

func (a *Agent) commitFactor(factor float64) {
	a.scale.SetScale(factor)
	a.session.SetScaleFactor(factor)
	a.logger.Info("calibration committed",
		log.Float64("factor", factor),
	)
}

package service

import (
	"context"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ControlLoopParams struct {
	PollInterval time.Duration
	DayStartHour int
	DayEndHour   int
	// EnableProductionWatt and EnableExportWatt gate the enable check while
	// disabled; KeepExportWatt is the lower export threshold once enabled.
	EnableProductionWatt int64
	EnableExportWatt     int64
	KeepExportWatt       int64
}

// ControlLoop is the top-level polling loop: one sequential iteration per
// poll interval, no parallelism. It owns the day/night mode flag and drives
// the boiler controller from energy readings.
type ControlLoop struct {
	params    ControlLoopParams
	source    port.EnergySource
	boiler    *BoilerController
	forecast  port.ForecastService
	recorder  port.ReadingRecorder
	publisher port.StatePublisher
	resetCh   <-chan struct{}
	logger    *zap.Logger

	wasNight bool

	prodThreshold decimal.Decimal
	now           func() time.Time
}

// NewControlLoop wires the loop. forecast, recorder, publisher and resetCh
// may be nil.
func NewControlLoop(params ControlLoopParams, source port.EnergySource, boiler *BoilerController,
	forecast port.ForecastService, recorder port.ReadingRecorder, publisher port.StatePublisher,
	resetCh <-chan struct{}, logger *zap.Logger) *ControlLoop {
	if params.PollInterval <= 0 {
		params.PollInterval = 2 * time.Second
	}
	return &ControlLoop{
		params:        params,
		source:        source,
		boiler:        boiler,
		forecast:      forecast,
		recorder:      recorder,
		publisher:     publisher,
		resetCh:       resetCh,
		logger:        logger,
		prodThreshold: decimal.NewFromInt(params.EnableProductionWatt),
		now:           time.Now,
	}
}

// Run iterates until ctx is cancelled or a step fails. Both exits run the
// shutdown path (disable + ledger flush). A nil return means a clean
// user-requested stop.
func (l *ControlLoop) Run(ctx context.Context) error {
	l.wasNight = l.isNight(l.now())
	l.logger.Info("Start continuous reading")
	for {
		if err := l.step(ctx); err != nil {
			l.logger.Error("control loop fault", zap.Error(err))
			l.shutdown()
			return err
		}
		select {
		case <-ctx.Done():
			l.logger.Info("Stopped by user")
			l.shutdown()
			return nil
		case <-time.After(l.params.PollInterval):
		}
	}
}

// step runs one control iteration at the current wall-clock time.
func (l *ControlLoop) step(ctx context.Context) error {
	l.drainCommands()

	now := l.now()
	if !l.isNight(now) {
		return l.dayStep(ctx)
	}
	return l.nightStep(ctx)
}

func (l *ControlLoop) dayStep(ctx context.Context) error {
	if l.wasNight {
		l.logger.Info("Manager in day mode")
		if err := l.boiler.SetNewDay(); err != nil {
			return err
		}
		l.refreshForecast(ctx)
		l.wasNight = false
	}

	reading := l.source.Read(ctx)
	l.record(reading)

	if !reading.Valid() {
		l.logger.Error("invalid reading, do nothing")
		return nil
	}

	prod := *reading.ProductionW
	export := *reading.ExportW
	l.logger.Debug("reading",
		zap.String("prod_w", prod.String()),
		zap.String("export_w", export.String()),
		zap.Duration("on_time", l.boiler.ChargeTimeToday()))

	// before enabling the boiler, make sure we are not consuming too much
	// for something else and have a reserve (the full threshold plus a bit
	// of noise); once enabled a much smaller export surplus is enough
	var enableExportLimit decimal.Decimal
	if l.boiler.IsEnabled() {
		enableExportLimit = decimal.NewFromInt(l.params.KeepExportWatt)
	} else {
		enableExportLimit = decimal.NewFromInt(l.params.EnableExportWatt)
	}

	if prod.GreaterThan(l.prodThreshold) && export.GreaterThan(enableExportLimit) {
		on, err := l.boiler.Enable(ctx)
		if err != nil {
			return err
		}
		if on {
			l.logger.Info("Enable",
				zap.String("prod_w", prod.String()),
				zap.String("export_w", export.String()))
		}
	}

	// evaluated every cycle, independently of the enable check above
	if export.LessThanOrEqual(decimal.Zero) {
		off, err := l.boiler.Disable(ctx)
		if err != nil {
			return err
		}
		if off {
			l.logger.Info("Disable",
				zap.String("prod_w", prod.String()),
				zap.String("export_w", export.String()))
		}
	}

	l.publishBoiler()
	return nil
}

func (l *ControlLoop) nightStep(ctx context.Context) error {
	if !l.wasNight {
		l.wasNight = true
		l.logger.Info("Manager in night mode")
	}

	if l.boiler.IsChargedEnoughForOneDay() {
		off, err := l.boiler.Disable(ctx)
		if err != nil {
			return err
		}
		if off {
			l.logger.Info("Boiler is charged enough for one more day",
				zap.Duration("last_two_days", l.boiler.ChargeTimeOfLastTwoDays()))
			l.logger.Info("Disable it")
			l.logger.Info("Manager go to sleep")
		}
	} else {
		on, err := l.boiler.Enable(ctx)
		if err != nil {
			return err
		}
		if on {
			l.logger.Info("Boiler is not charged, enable it")
		}
	}

	l.publishBoiler()
	return nil
}

func (l *ControlLoop) isNight(t time.Time) bool {
	hour := t.Hour()
	return hour < l.params.DayStartHour || hour > l.params.DayEndHour
}

// refreshForecast is advisory only: results are logged and published, never
// fed into control decisions.
func (l *ControlLoop) refreshForecast(ctx context.Context) {
	if l.forecast == nil {
		return
	}
	fc, err := l.forecast.SunHours(ctx)
	if err != nil {
		l.logger.Error("failed to get weather forecast", zap.Error(err))
		return
	}
	l.logger.Info("sun hours",
		zap.Float64("today", fc.SunHoursToday),
		zap.Float64("tomorrow", fc.SunHoursTomorrow))
}

func (l *ControlLoop) drainCommands() {
	if l.resetCh == nil {
		return
	}
	for {
		select {
		case <-l.resetCh:
			if err := l.boiler.ResetCounter(); err != nil {
				l.logger.Error("failed to reset counter", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (l *ControlLoop) record(reading domain.EnergyReading) {
	if l.publisher != nil {
		l.publisher.PublishReading(reading)
	}
	if l.recorder == nil {
		return
	}
	if err := l.recorder.Record(reading.At, reading); err != nil {
		l.logger.Warn("failed to record reading", zap.Error(err))
	}
}

func (l *ControlLoop) publishBoiler() {
	if l.publisher != nil {
		l.publisher.PublishBoiler(l.boiler.Snapshot())
	}
}

// shutdown is best-effort: a failure during the final disable or flush is
// logged but not retried.
func (l *ControlLoop) shutdown() {
	if _, err := l.boiler.Disable(context.Background()); err != nil {
		l.logger.Error("failed to disable boiler on shutdown", zap.Error(err))
	}
	if err := l.boiler.FlushLedger(); err != nil {
		l.logger.Error("failed to flush ledger on shutdown", zap.Error(err))
	}
}

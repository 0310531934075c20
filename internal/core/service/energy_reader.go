package service

import (
	"context"
	"errors"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"
	"github.com/weieran/solarManagement/pkg/solaredge_modbus"

	"go.uber.org/zap"
)

// SunSpec scale factors live in [-10, 10]; 0x8000 marks an unimplemented
// register. Anything outside the range is a partial/garbage payload.
const (
	minScaleFactor = -10
	maxScaleFactor = 10
)

// EnergyReader wraps the inverter and meter Modbus sessions and hides
// transient I/O faults behind a bounded retry/reconnect policy.
type EnergyReader struct {
	inverter solaredge_modbus.InverterReader
	meter    solaredge_modbus.MeterReader
	logger   *zap.Logger

	attempts       int
	backoff        time.Duration
	reconnectMeter bool
}

type EnergyReaderConfig struct {
	Attempts       int
	Backoff        time.Duration
	ReconnectMeter bool
}

func NewEnergyReader(inverter solaredge_modbus.InverterReader, meter solaredge_modbus.MeterReader,
	cfg EnergyReaderConfig, logger *zap.Logger) *EnergyReader {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 10
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &EnergyReader{
		inverter:       inverter,
		meter:          meter,
		logger:         logger,
		attempts:       cfg.Attempts,
		backoff:        cfg.Backoff,
		reconnectMeter: cfg.ReconnectMeter,
	}
}

// Connect opens both Modbus sessions, retrying up to the attempt budget with
// a fixed backoff. A failed Connect leaves the reader unusable but does not
// abort the process; every Read will then burn its retry budget and report
// an invalid reading.
func (e *EnergyReader) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < e.attempts; attempt++ {
		if err := e.open(); err != nil {
			lastErr = err
			e.logger.Error("Could not connect with inverter or meter, try again",
				zap.Int("attempt", attempt), zap.Duration("backoff", e.backoff), zap.Error(err))
			if err := sleepCtx(ctx, e.backoff); err != nil {
				return err
			}
			continue
		}
		return nil
	}
	return lastErr
}

// Read returns the current production and export power. Each of up to
// `attempts` tries reads the inverter AC power and the meter power; on a
// connection fault or a malformed payload it recovers the sessions and
// retries. After the budget is spent it returns whatever was read, possibly
// nothing; the caller must treat missing values as "no actionable reading".
func (e *EnergyReader) Read(ctx context.Context) domain.EnergyReading {
	reading := domain.EnergyReading{At: time.Now()}
	for attempt := 0; attempt < e.attempts; attempt++ {
		if ctx.Err() != nil {
			return reading
		}
		err := e.readOnce(&reading)
		if err == nil {
			return reading
		}
		var malformed *domain.MalformedPayloadFault
		if errors.As(err, &malformed) {
			e.logger.Warn("Invalid data, try to reconnect", zap.Int("attempt", attempt), zap.Error(err))
		} else {
			e.logger.Warn("Inverter Read Error, try to reconnect", zap.Int("attempt", attempt), zap.Error(err))
		}
		e.recover(ctx)
	}
	return reading
}

func (e *EnergyReader) readOnce(reading *domain.EnergyReading) error {
	prodSample, err := e.inverter.GetACPower()
	if err != nil {
		return &domain.ConnectionFault{Op: "inverter read", Err: err}
	}
	exportSample, err := e.meter.GetPower()
	if err != nil {
		return &domain.ConnectionFault{Op: "meter read", Err: err}
	}
	if err := validSample(exportSample); err != nil {
		return &domain.MalformedPayloadFault{Field: "meter_power", Err: err}
	}
	export := domain.PowerFromSample(exportSample.Value, exportSample.ScaleFactor)
	reading.ExportW = &export

	// maybe we timed out and the inverter data is not there
	if err := validSample(prodSample); err != nil {
		return &domain.MalformedPayloadFault{Field: "power_ac", Err: err}
	}
	production := domain.PowerFromSample(prodSample.Value, prodSample.ScaleFactor)
	reading.ProductionW = &production
	return nil
}

func validSample(sample *solaredge_modbus.PowerSample) error {
	if sample == nil {
		return errors.New("missing sample")
	}
	if sample.ScaleFactor < minScaleFactor || sample.ScaleFactor > maxScaleFactor {
		return errors.New("scale factor out of range")
	}
	return nil
}

// recover tears down both sessions, waits one backoff period and reconnects.
// Errors are logged and swallowed; the next retry attempt proceeds either
// way.
func (e *EnergyReader) recover(ctx context.Context) {
	if err := e.recoverOnce(ctx); err != nil {
		e.logger.Error("failed to recover", zap.Error(err))
	}
	e.logger.Debug("recovery done")
}

func (e *EnergyReader) recoverOnce(ctx context.Context) error {
	if err := e.inverter.Close(); err != nil {
		return err
	}
	if e.reconnectMeter {
		if err := e.meter.Close(); err != nil {
			return err
		}
	}
	if err := sleepCtx(ctx, e.backoff); err != nil {
		return err
	}
	if err := e.inverter.Open(); err != nil {
		return err
	}
	if e.reconnectMeter {
		if err := e.meter.Open(); err != nil {
			return err
		}
	}
	return nil
}

func (e *EnergyReader) open() error {
	if err := e.inverter.Open(); err != nil {
		return err
	}
	if err := e.meter.Open(); err != nil {
		return err
	}
	return nil
}

func (e *EnergyReader) Close() error {
	invErr := e.inverter.Close()
	meterErr := e.meter.Close()
	if invErr != nil {
		return invErr
	}
	return meterErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ensure interface compliance
var _ port.EnergySource = (*EnergyReader)(nil)

package service

import (
	"context"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	"go.uber.org/zap"
)

// BoilerController owns the relay and the charge-time ledger. It is a two
// state machine (enabled/disabled) and must only be driven from a single
// goroutine.
type BoilerController struct {
	relay  port.RelaySwitch
	store  port.LedgerStore
	ledger domain.ChargeLedger
	logger *zap.Logger

	channel    int
	isEnabled  bool
	isDisabled bool
	startTime  time.Time
	stopTime   time.Time

	now func() time.Time
}

func NewBoilerController(relay port.RelaySwitch, store port.LedgerStore, channel int, logger *zap.Logger) (*BoilerController, error) {
	ledger, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &BoilerController{
		relay:   relay,
		store:   store,
		ledger:  ledger,
		channel: channel,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Enable commands the relay ON and starts charge-time tracking. Returns
// false without side effects when already enabled. Actuator faults
// propagate.
func (b *BoilerController) Enable(ctx context.Context) (bool, error) {
	if b.isEnabled {
		return false, nil
	}
	if err := b.relay.Set(ctx, b.channel, true); err != nil {
		return false, err
	}
	b.logger.Info("Enable Boiler",
		zap.Duration("today", b.ledger.ChargeTimeToday),
		zap.Duration("yesterday", b.ledger.ChargeTimeYesterday))
	b.startTime = b.now()
	b.isEnabled = true
	b.isDisabled = false
	return true, nil
}

// Disable adds the elapsed charge time to the ledger, persists it, then
// commands the relay OFF. Returns false without side effects when already
// disabled. The elapsed time is skipped when the boiler was never enabled.
func (b *BoilerController) Disable(ctx context.Context) (bool, error) {
	if b.isDisabled {
		return false, nil
	}
	b.stopTime = b.now()
	if !b.startTime.IsZero() {
		b.ledger.ChargeTimeToday += b.stopTime.Sub(b.startTime)
		if err := b.store.Save(b.ledger); err != nil {
			return false, err
		}
	}
	b.logger.Info("Disable Boiler",
		zap.Duration("today", b.ledger.ChargeTimeToday),
		zap.Duration("yesterday", b.ledger.ChargeTimeYesterday))
	if err := b.relay.Set(ctx, b.channel, false); err != nil {
		return false, err
	}
	b.isEnabled = false
	b.isDisabled = true
	return true, nil
}

// SetNewDay rolls today's counter into yesterday, capped at a full charge.
// Must be called exactly once per night to day transition.
func (b *BoilerController) SetNewDay() error {
	b.logger.Debug("set new day")
	// if we charged more than a full charge, cap at a full charge
	b.ledger.ChargeTimeYesterday = min(b.ledger.ChargeTimeToday, domain.FullChargeTime)
	b.ledger.ChargeTimeToday = 0
	return b.store.Save(b.ledger)
}

// ResetCounter zeroes today's counter. Manual override path.
func (b *BoilerController) ResetCounter() error {
	b.logger.Debug("reset total elapsed time")
	b.ledger.ChargeTimeToday = 0
	return b.store.Save(b.ledger)
}

// FlushLedger persists the current counters. Used on shutdown.
func (b *BoilerController) FlushLedger() error {
	return b.store.Save(b.ledger)
}

func (b *BoilerController) IsEnabled() bool {
	return b.isEnabled
}

func (b *BoilerController) IsFullyCharged() bool {
	return b.ledger.ChargeTimeToday > domain.FullChargeTime
}

func (b *BoilerController) IsChargedForOneDay() bool {
	return b.ledger.ChargeTimeToday > domain.UsagePerDay
}

func (b *BoilerController) ChargeTimeOfLastTwoDays() time.Duration {
	return b.ledger.LastTwoDays()
}

// IsChargedEnoughForOneDay assumes the tank discharges at most half of a
// full charge per day, so two days of combined charge must cover one day of
// usage.
func (b *BoilerController) IsChargedEnoughForOneDay() bool {
	return b.ChargeTimeOfLastTwoDays() >= domain.UsagePerDay
}

func (b *BoilerController) ChargeTimeToday() time.Duration {
	return b.ledger.ChargeTimeToday
}

func (b *BoilerController) Snapshot() domain.BoilerSnapshot {
	return domain.BoilerSnapshot{
		Enabled:             b.isEnabled,
		ChargeTimeToday:     b.ledger.ChargeTimeToday,
		ChargeTimeYesterday: b.ledger.ChargeTimeYesterday,
	}
}

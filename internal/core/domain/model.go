package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// FullChargeTime is the relay-on time needed to fully heat the tank.
	FullChargeTime = 3 * time.Hour
	// UsagePerDay assumes the tank is discharged at most half of a full
	// charge per day.
	UsagePerDay = FullChargeTime / 2
)

// EnergyReading is one poll sample. Either field may be nil when the
// corresponding read did not produce a usable value this cycle.
type EnergyReading struct {
	At          time.Time
	ProductionW *decimal.Decimal
	ExportW     *decimal.Decimal
}

func (r EnergyReading) Valid() bool {
	return r.ProductionW != nil && r.ExportW != nil
}

// PowerFromSample converts a SunSpec mantissa/exponent register pair into an
// exact decimal wattage. Never goes through float to avoid rounding drift.
func PowerFromSample(value int16, scaleFactor int16) decimal.Decimal {
	return decimal.New(int64(value), int32(scaleFactor))
}

// ChargeLedger holds the persisted charge-time counters.
type ChargeLedger struct {
	ChargeTimeToday     time.Duration
	ChargeTimeYesterday time.Duration
}

func (l ChargeLedger) LastTwoDays() time.Duration {
	return l.ChargeTimeToday + l.ChargeTimeYesterday
}

// DefaultChargeLedger is the first-run state: no charge today, and yesterday
// assumed full so the controller does not force a night charge on a fresh
// install.
func DefaultChargeLedger() ChargeLedger {
	return ChargeLedger{
		ChargeTimeToday:     0,
		ChargeTimeYesterday: FullChargeTime,
	}
}

// BoilerSnapshot is a read-only view of the controller state, published for
// the status server and MQTT.
type BoilerSnapshot struct {
	Enabled             bool          `json:"enabled"`
	ChargeTimeToday     time.Duration `json:"charge_time_today"`
	ChargeTimeYesterday time.Duration `json:"charge_time_yesterday"`
}

// Forecast is advisory only: it is logged and published but never feeds into
// control decisions.
type Forecast struct {
	SunHoursToday    float64
	SunHoursTomorrow float64
}

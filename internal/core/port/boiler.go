package port

import (
	"context"

	"github.com/weieran/solarManagement/internal/core/domain"
)

// RelaySwitch commands a relay channel. Fire-and-forget: success is implied
// when no error is returned.
type RelaySwitch interface {
	Set(ctx context.Context, channel int, on bool) error
}

// LedgerStore persists the charge-time counters. Save blocks until the state
// is on disk.
type LedgerStore interface {
	Load() (domain.ChargeLedger, error)
	Save(ledger domain.ChargeLedger) error
}

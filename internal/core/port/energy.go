package port

import (
	"context"

	"github.com/weieran/solarManagement/internal/core/domain"
)

// EnergySource delivers the current production and grid-export power.
// An invalid reading (nil fields) means "no actionable data this cycle",
// never an error.
type EnergySource interface {
	Read(ctx context.Context) domain.EnergyReading
}

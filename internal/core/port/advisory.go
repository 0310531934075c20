package port

import (
	"context"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
)

// ForecastService fetches the advisory weather forecast. Failures are logged
// by the caller and otherwise ignored.
type ForecastService interface {
	SunHours(ctx context.Context) (domain.Forecast, error)
}

// ReadingRecorder appends raw per-cycle readings to the data log.
type ReadingRecorder interface {
	Record(at time.Time, reading domain.EnergyReading) error
}

// StatePublisher pushes reading and boiler state to external consumers
// (MQTT, status server). Publish errors must not affect control flow.
type StatePublisher interface {
	PublishReading(reading domain.EnergyReading)
	PublishBoiler(snapshot domain.BoilerSnapshot)
}

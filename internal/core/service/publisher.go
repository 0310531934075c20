package service

import (
	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"
)

// FanOutPublisher forwards state to every configured publisher (status
// cache, MQTT). Still called from the loop goroutine only.
type FanOutPublisher []port.StatePublisher

func (f FanOutPublisher) PublishReading(reading domain.EnergyReading) {
	for _, p := range f {
		p.PublishReading(reading)
	}
}

func (f FanOutPublisher) PublishBoiler(snapshot domain.BoilerSnapshot) {
	for _, p := range f {
		p.PublishBoiler(snapshot)
	}
}

// ensure interface compliance
var _ port.StatePublisher = (FanOutPublisher)(nil)

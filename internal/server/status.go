package server

import (
	"sync/atomic"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"
)

// StatusCache holds the latest reading and boiler snapshot published by the
// control loop. The loop is the only writer; HTTP handlers read atomic
// copies, so controller state never leaves the loop goroutine.
type StatusCache struct {
	reading atomic.Pointer[domain.EnergyReading]
	boiler  atomic.Pointer[domain.BoilerSnapshot]
	updated atomic.Pointer[time.Time]
}

func NewStatusCache() *StatusCache {
	return &StatusCache{}
}

func (c *StatusCache) PublishReading(reading domain.EnergyReading) {
	c.reading.Store(&reading)
	c.touch()
}

func (c *StatusCache) PublishBoiler(snapshot domain.BoilerSnapshot) {
	c.boiler.Store(&snapshot)
	c.touch()
}

func (c *StatusCache) touch() {
	now := time.Now()
	c.updated.Store(&now)
}

func (c *StatusCache) Reading() *domain.EnergyReading {
	return c.reading.Load()
}

func (c *StatusCache) Boiler() *domain.BoilerSnapshot {
	return c.boiler.Load()
}

func (c *StatusCache) UpdatedAt() *time.Time {
	return c.updated.Load()
}

// ensure interface compliance
var _ port.StatePublisher = (*StatusCache)(nil)

package service

import (
	"context"
	"errors"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
)

// relay double recording every command

type fakeRelay struct {
	commands []bool
	failNext bool
}

func (r *fakeRelay) Set(_ context.Context, _ int, on bool) error {
	if r.failNext {
		return &domain.ActuatorFault{Op: "relay set", Err: errors.New("boom")}
	}
	r.commands = append(r.commands, on)
	return nil
}

func (r *fakeRelay) lastCommand() (bool, bool) {
	if len(r.commands) == 0 {
		return false, false
	}
	return r.commands[len(r.commands)-1], true
}

// in-memory ledger store

type fakeStore struct {
	ledger  domain.ChargeLedger
	saves   int
	loadErr error
	saveErr error
}

func (s *fakeStore) Load() (domain.ChargeLedger, error) {
	return s.ledger, s.loadErr
}

func (s *fakeStore) Save(ledger domain.ChargeLedger) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ledger = ledger
	s.saves++
	return nil
}

// scripted energy source

type fakeSource struct {
	readings []domain.EnergyReading
	reads    int
}

func (s *fakeSource) Read(_ context.Context) domain.EnergyReading {
	if len(s.readings) == 0 {
		return domain.EnergyReading{At: time.Now()}
	}
	r := s.readings[0]
	if len(s.readings) > 1 {
		s.readings = s.readings[1:]
	}
	s.reads++
	return r
}

type fakeForecast struct {
	forecast domain.Forecast
	err      error
	calls    int
}

func (f *fakeForecast) SunHours(_ context.Context) (domain.Forecast, error) {
	f.calls++
	return f.forecast, f.err
}

func reading(prodW, exportW int64) domain.EnergyReading {
	prod := domain.PowerFromSample(int16(prodW), 0)
	export := domain.PowerFromSample(int16(exportW), 0)
	return domain.EnergyReading{
		At:          time.Now(),
		ProductionW: &prod,
		ExportW:     &export,
	}
}

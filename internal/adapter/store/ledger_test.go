package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.json")
	s := NewFileLedgerStore(path)

	ledger, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), ledger.ChargeTimeToday)
	assert.Equal(t, domain.FullChargeTime, ledger.ChargeTimeYesterday,
		"a fresh install must count as fully charged yesterday")

	_, err = os.Stat(path)
	assert.NoError(t, err, "defaults must be written out")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.json")
	s := NewFileLedgerStore(path)

	want := domain.ChargeLedger{
		ChargeTimeToday:     90 * time.Minute,
		ChargeTimeYesterday: 2 * time.Hour,
	}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveWritesWholeSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.json")
	s := NewFileLedgerStore(path)

	require.NoError(t, s.Save(domain.ChargeLedger{
		ChargeTimeToday:     10 * time.Second,
		ChargeTimeYesterday: 3 * time.Second,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: \"1.0\"")
	assert.Contains(t, string(data), "charge_time_today: 10")
	assert.Contains(t, string(data), "charge_time_yesterday: 3")
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solar.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{not yaml"), 0o644))

	_, err := NewFileLedgerStore(path).Load()
	require.Error(t, err)
}

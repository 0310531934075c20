package store

import (
	"fmt"
	"os"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	"gopkg.in/yaml.v3"
)

const ledgerVersion = "1.0"

// ledgerDocument is the on-disk shape: a small key-value document with the
// counters in whole seconds.
type ledgerDocument struct {
	Version             string `yaml:"version"`
	ChargeTimeYesterday int64  `yaml:"charge_time_yesterday"`
	ChargeTimeToday     int64  `yaml:"charge_time_today"`
}

// FileLedgerStore persists the charge ledger to a single YAML file. The file
// is fully rewritten on every save via write-to-temp + rename, which is
// atomic enough for a single-process owner.
type FileLedgerStore struct {
	path string
}

func NewFileLedgerStore(path string) *FileLedgerStore {
	return &FileLedgerStore{path: path}
}

// Load reads the persisted counters. A missing file is not an error: the
// defaults are written out and returned.
func (s *FileLedgerStore) Load() (domain.ChargeLedger, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		ledger := domain.DefaultChargeLedger()
		if err := s.Save(ledger); err != nil {
			return domain.ChargeLedger{}, err
		}
		return ledger, nil
	}
	if err != nil {
		return domain.ChargeLedger{}, err
	}
	var doc ledgerDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.ChargeLedger{}, fmt.Errorf("ledger file %s: %w", s.path, err)
	}
	return domain.ChargeLedger{
		ChargeTimeToday:     time.Duration(doc.ChargeTimeToday) * time.Second,
		ChargeTimeYesterday: time.Duration(doc.ChargeTimeYesterday) * time.Second,
	}, nil
}

func (s *FileLedgerStore) Save(ledger domain.ChargeLedger) error {
	doc := ledgerDocument{
		Version:             ledgerVersion,
		ChargeTimeYesterday: int64(ledger.ChargeTimeYesterday / time.Second),
		ChargeTimeToday:     int64(ledger.ChargeTimeToday / time.Second),
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// ensure interface compliance
var _ port.LedgerStore = (*FileLedgerStore)(nil)

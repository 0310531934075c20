package recorder

import (
	"fmt"
	"os"
	"time"

	"github.com/weieran/solarManagement/internal/core/domain"
	"github.com/weieran/solarManagement/internal/core/port"

	"github.com/shopspring/decimal"
)

// FileRecorder appends one line per poll cycle to a raw data file. Once the
// file grows past maxBytes it is renamed to <path>.old and a fresh file is
// started on the next write.
type FileRecorder struct {
	path     string
	maxBytes int64
}

func NewFileRecorder(path string, maxBytes int64) *FileRecorder {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &FileRecorder{path: path, maxBytes: maxBytes}
}

func (r *FileRecorder) Record(at time.Time, reading domain.EnergyReading) error {
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s, prod[W]:%s, export[W]:%s\n",
		at.Format(time.RFC3339), formatWatt(reading.ProductionW), formatWatt(reading.ExportW))
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if info.Size() > r.maxBytes {
		return os.Rename(r.path, r.path+".old")
	}
	return nil
}

func formatWatt(value *decimal.Decimal) string {
	if value == nil {
		return "none"
	}
	return value.String()
}

// ensure interface compliance
var _ port.ReadingRecorder = (*FileRecorder)(nil)

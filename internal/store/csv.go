package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/seoulwatch/jiphoe/internal/domain"
)

// csvFields matches the original export column order.
var csvFields = []string{"년", "월", "일", "start_time", "end_time", "장소", "인원", "위도", "경도", "비고"}

// WriteCSV writes records as a UTF-8 CSV with a BOM so spreadsheet
// tools pick up the encoding.
func WriteCSV(path string, records []domain.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString("\uFEFF"); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvFields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Year, r.Month, r.Day, r.StartTime, r.EndTime,
			r.Places, r.Headcount, r.Lats, r.Lons, r.Remark,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

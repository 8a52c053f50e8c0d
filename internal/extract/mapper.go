package extract

import (
	"strings"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/normalize"
)

// Columns carries the resolved column roles of a located region.
// Route and Remark are -1 when no such column was identified.
type Columns struct {
	Time   int
	Place  int
	Route  int
	Remark int
}

var (
	timeStems   = []string{"시간", "집회시간"}
	placeStems  = []string{"장소", "집회장소", "집결"}
	routeStems  = []string{"행진", "경로"}
	remarkStems = []string{"비고", "참고", "기타"}
)

const statSample = 15

// MapColumns determines which column holds time, place and route text.
// Header labels are tried first (over the first two rows, whitespace
// stripped so "시 간" still matches); when that fails to pin down both
// time and place, content statistics decide: the column with the most
// time-pattern matches is time, and the longest remaining column is
// place. All argmax ties keep the first index.
func MapColumns(region *Region) Columns {
	cols := Columns{Time: -1, Place: -1, Route: -1, Remark: -1}
	if region == nil || len(region.Rows) == 0 {
		return positionalDefault(cols, 0)
	}

	headerRows := 1
	if len(region.Rows) > 2 {
		headerRows = 2
	}
	for _, row := range region.Rows[:headerRows] {
		for i, cell := range row {
			label := normalize.Label(cell)
			if cols.Time < 0 && containsAny(label, timeStems) {
				cols.Time = i
			}
			if cols.Place < 0 && containsAny(label, placeStems) {
				cols.Place = i
			}
			if cols.Route < 0 && containsAny(label, routeStems) {
				cols.Route = i
			}
			if cols.Remark < 0 && containsAny(label, remarkStems) {
				cols.Remark = i
			}
		}
		if cols.Time >= 0 && cols.Place >= 0 {
			return cols
		}
	}

	width := 0
	for _, row := range region.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(region.Rows) < 2 || width < 2 {
		return positionalDefault(cols, width)
	}

	timeCounts := make([]int, width)
	lenSums := make([]int, width)
	sampled := 0
	for _, row := range region.Rows[1:] {
		if sampled >= statSample {
			break
		}
		for j := 0; j < width && j < len(row); j++ {
			if HasTimeRange(row[j]) {
				timeCounts[j]++
			}
			lenSums[j] += len([]rune(row[j]))
		}
		sampled++
	}

	if cols.Time < 0 {
		cols.Time = argmaxInt(timeCounts)
	}
	if cols.Place < 0 {
		best, bestLen := -1, -1
		for j := 0; j < width; j++ {
			if j == cols.Time {
				continue
			}
			if lenSums[j] > bestLen {
				best, bestLen = j, lenSums[j]
			}
		}
		cols.Place = best
	}
	if cols.Place < 0 {
		return positionalDefault(cols, width)
	}
	return cols
}

// RowsFromRegion converts the data rows of a region into raw rows
// using the mapped column roles.
func RowsFromRegion(region *Region, cols Columns) []domain.RawRow {
	if region == nil || len(region.Rows) < 2 {
		return nil
	}
	var out []domain.RawRow
	for _, row := range region.Rows[1:] {
		raw := domain.RawRow{}
		if cols.Time >= 0 && cols.Time < len(row) {
			raw.TimeText = row[cols.Time]
		}
		if cols.Place >= 0 && cols.Place < len(row) {
			raw.PlaceText = row[cols.Place]
		}
		var aux []string
		if cols.Route >= 0 && cols.Route < len(row) && cols.Route != cols.Place {
			aux = append(aux, row[cols.Route])
		}
		if cols.Remark >= 0 && cols.Remark < len(row) && cols.Remark != cols.Place && cols.Remark != cols.Route {
			aux = append(aux, row[cols.Remark])
		}
		raw.RemarkText = strings.TrimSpace(strings.Join(aux, " "))

		// Headcount lives in the place or remark cell, never its own
		// mapped column.
		if v, span, ok := Headcount(raw.PlaceText); ok {
			raw.Headcount = v
			raw.PlaceText = strings.TrimSpace(raw.PlaceText[:span[0]] + " " + raw.PlaceText[span[1]:])
		} else if v, _, ok := Headcount(raw.RemarkText); ok {
			raw.Headcount = v
		}

		// A row where the mapped cells miss entirely still gets one
		// chance via the full row text.
		if raw.TimeText == "" && raw.PlaceText == "" {
			raw.PlaceText = strings.Join(row, " ")
		}
		out = append(out, raw)
	}
	return out
}

func positionalDefault(cols Columns, width int) Columns {
	switch {
	case width >= 3:
		if cols.Time < 0 {
			cols.Time = 1
		}
		if cols.Place < 0 {
			cols.Place = 2
		}
	case width == 2:
		if cols.Time < 0 {
			cols.Time = 0
		}
		if cols.Place < 0 {
			cols.Place = 1
		}
	default:
		if cols.Time < 0 {
			cols.Time = 0
		}
		if cols.Place < 0 {
			cols.Place = 0
		}
	}
	return cols
}

func containsAny(s string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(s, stem) {
			return true
		}
	}
	return false
}

func argmaxInt(xs []int) int {
	best, bestVal := 0, -1
	for i, v := range xs {
		if v > bestVal {
			best, bestVal = i, v
		}
	}
	return best
}

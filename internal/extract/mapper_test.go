package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumnsByHeader(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"연번", "집회시간", "집회장소", "행진경로", "비고"},
		{"1", "10:00~12:00", "광화문광장", "세종대로", "500명"},
	}}
	cols := MapColumns(region)
	assert.Equal(t, 1, cols.Time)
	assert.Equal(t, 2, cols.Place)
	assert.Equal(t, 3, cols.Route)
	assert.Equal(t, 4, cols.Remark)
}

func TestMapColumnsBrokenHeaderLabel(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"연번", "시 간", "장 소"},
		{"1", "10:00~12:00", "광화문광장"},
	}}
	cols := MapColumns(region)
	assert.Equal(t, 1, cols.Time)
	assert.Equal(t, 2, cols.Place)
}

func TestMapColumnsSecondHeaderRow(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"집회 현황", "집회 현황", "집회 현황"},
		{"연번", "시간", "장소"},
		{"1", "10:00~12:00", "광화문광장"},
	}}
	cols := MapColumns(region)
	assert.Equal(t, 1, cols.Time)
	assert.Equal(t, 2, cols.Place)
}

func TestMapColumnsByContentStats(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"a", "b", "c"},
		{"1", "10:00~12:00", "광화문광장 북측 세종대로 일대"},
		{"2", "14:00~15:00", "서울역 광장 앞 전체 차로"},
	}}
	cols := MapColumns(region)
	assert.Equal(t, 1, cols.Time)
	assert.Equal(t, 2, cols.Place)
}

func TestMapColumnsPositionalDefault(t *testing.T) {
	cols := MapColumns(&Region{Rows: [][]string{{"only"}}})
	assert.Equal(t, 0, cols.Time)
	assert.Equal(t, 0, cols.Place)
}

func TestRowsFromRegion(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"연번", "시간", "장소", "행진"},
		{"1", "10:00~12:00", "광화문광장", "세종대로 행진"},
		{"2", "14:00~16:00", "시청 앞", ""},
	}}
	cols := MapColumns(region)
	rows := RowsFromRegion(region, cols)
	require.Len(t, rows, 2)
	assert.Equal(t, "10:00~12:00", rows[0].TimeText)
	assert.Equal(t, "광화문광장", rows[0].PlaceText)
	assert.Equal(t, "세종대로 행진", rows[0].RemarkText)
	assert.Equal(t, "", rows[1].RemarkText)
}

func TestRowsFromRegionHeadcount(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"연번", "시간", "장소", "비고"},
		{"1", "10:00~12:00", "광화문광장 3,000명", ""},
		{"2", "14:00~16:00", "시청 앞", "약 500명 예상"},
	}}
	cols := MapColumns(region)
	rows := RowsFromRegion(region, cols)
	require.Len(t, rows, 2)
	assert.Equal(t, "3000", rows[0].Headcount)
	assert.NotContains(t, rows[0].PlaceText, "3,000")
	assert.Equal(t, "500", rows[1].Headcount)
	assert.Equal(t, "시청 앞", rows[1].PlaceText)
}

func TestRowsFromRegionShortRow(t *testing.T) {
	region := &Region{Rows: [][]string{
		{"연번", "시간", "장소"},
		{"합계 3건"},
	}}
	rows := RowsFromRegion(region, Columns{Time: 1, Place: 2, Route: -1, Remark: -1})
	require.Len(t, rows, 1)
	// both mapped cells are out of range, so the full row text stands in
	assert.Equal(t, "합계 3건", rows[0].PlaceText)
}

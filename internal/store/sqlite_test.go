package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulwatch/jiphoe/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertTimeOnly(t *testing.T) {
	s := newTestStore(t)

	r1 := rec("", []string{"광화문광장"}, []*float64{nil}, []*float64{nil})
	added, skipped, err := s.UpsertTimeOnly([]domain.Record{r1})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, skipped)

	// same time key, different places: skipped, never modified
	r2 := rec("", []string{"서울역"}, []*float64{nil}, []*float64{nil})
	added, skipped, err = s.UpsertTimeOnly([]domain.Record{r2})
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, skipped)

	all, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"광화문광장"}, all[0].PlaceList())
}

func TestUpsertSoftMergeMerges(t *testing.T) {
	s := newTestStore(t)

	r1 := rec("", []string{"광화문광장", "시청"}, []*float64{floatPtr(37.57), nil}, []*float64{floatPtr(126.97), nil})
	_, _, err := s.UpsertSoftMerge([]domain.Record{r1}, 2)
	require.NoError(t, err)

	r2 := rec("", []string{"광화문 광장", "시청", "서울역"},
		[]*float64{nil, floatPtr(37.56), floatPtr(37.55)},
		[]*float64{nil, floatPtr(126.98), floatPtr(126.97)})
	added, updated, err := s.UpsertSoftMerge([]domain.Record{r2}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, updated)

	all, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"광화문광장", "시청", "서울역"}, all[0].PlaceList())
}

func TestUpsertSoftMergeInsufficientOverlap(t *testing.T) {
	s := newTestStore(t)

	r1 := rec("", []string{"광화문광장", "시청"}, []*float64{nil, nil}, []*float64{nil, nil})
	_, _, err := s.UpsertSoftMerge([]domain.Record{r1}, 2)
	require.NoError(t, err)

	// only one place in common: a distinct assembly in the same window
	r2 := rec("", []string{"시청", "서울역"}, []*float64{nil, nil}, []*float64{nil, nil})
	added, updated, err := s.UpsertSoftMerge([]domain.Record{r2}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, updated)

	all, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpsertSoftMergeDifferentWindows(t *testing.T) {
	s := newTestStore(t)

	r1 := rec("", []string{"광화문광장", "시청"}, []*float64{nil, nil}, []*float64{nil, nil})
	r2 := r1
	r2.StartTime = "14:00"

	added, updated, err := s.UpsertSoftMerge([]domain.Record{r1, r2}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 0, updated)
}

func TestByDateAndLatestDate(t *testing.T) {
	s := newTestStore(t)

	r1 := rec("", []string{"광화문"}, []*float64{nil}, []*float64{nil})
	r2 := rec("", []string{"시청"}, []*float64{nil}, []*float64{nil})
	r2.Day = "30"
	r2.StartTime = "09:00"
	_, _, err := s.UpsertTimeOnly([]domain.Record{r1, r2})
	require.NoError(t, err)

	latest, ok, err := s.LatestDate()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "31", latest.Day)

	byDate, err := s.ByDate(domain.Date{Year: "2026", Month: "08", Day: "30"})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, []string{"시청"}, byDate[0].PlaceList())
}

func TestLatestDateEmpty(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.LatestDate()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSortRecords(t *testing.T) {
	records := []domain.Record{
		{Year: "2026", Month: "08", Day: "31", StartTime: "14:00", EndTime: "16:00"},
		{Year: "2026", Month: "08", Day: "31", StartTime: "09:00", EndTime: ""},
		{Year: "2026", Month: "08", Day: "31", StartTime: "09:00", EndTime: "10:00"},
		{Year: "2026", Month: "08", Day: "30", StartTime: "23:00", EndTime: "23:30"},
	}
	SortRecords(records)
	assert.Equal(t, "30", records[0].Day)
	assert.Equal(t, "10:00", records[1].EndTime)
	assert.Equal(t, "", records[2].EndTime)
	assert.Equal(t, "14:00", records[3].StartTime)
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "events.csv")

	r := rec("a", []string{"광화문광장"}, []*float64{floatPtr(37.57)}, []*float64{floatPtr(126.97)})
	r.Headcount = "500"
	r.Remark = "차로 행진"
	require.NoError(t, WriteCSV(path, []domain.Record{r}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(b)

	assert.True(t, strings.HasPrefix(content, "\uFEFF"), "missing BOM")
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(content, "\uFEFF")), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "년,월,일,start_time,end_time,장소,인원,위도,경도,비고", lines[0])
	assert.Contains(t, lines[1], "광화문광장")
	assert.Contains(t, lines[1], "500")
	assert.Contains(t, lines[1], "차로 행진")
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seoulwatch/jiphoe/internal/domain"
)

func TestGroupMergesSameWindow(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "10:00~12:00", PlaceText: "광화문광장"},
		{TimeText: "10:00 ~ 12:00", PlaceText: "세종대로", RemarkText: "차로 행진"},
	}
	events := Group(rows)
	assert.Len(t, events, 1)
	assert.Equal(t, "10:00", events[0].StartTime)
	assert.Equal(t, "12:00", events[0].EndTime)
	assert.Equal(t, []string{"광화문광장", "세종대로"}, events[0].Places)
	assert.Equal(t, []string{"차로 행진"}, events[0].Remarks)
}

func TestGroupDropsRowsWithoutTime(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "비고", PlaceText: "광화문광장"},
	}
	assert.Empty(t, Group(rows))
}

func TestGroupDropsRowsWithoutContent(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "10:00~12:00", PlaceText: "  ", RemarkText: ""},
	}
	assert.Empty(t, Group(rows))
}

func TestGroupFindsTimeInNeighborCell(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "", PlaceText: "09:00~11:00 광화문광장"},
	}
	events := Group(rows)
	assert.Len(t, events, 1)
	assert.Equal(t, "09:00", events[0].StartTime)
}

func TestGroupSortsByStartThenEnd(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "14:00~16:00", PlaceText: "시청"},
		{TimeText: "09:00~10:00", PlaceText: "광화문"},
		{TimeText: "09:00", PlaceText: "서울역"},
	}
	events := Group(rows)
	assert.Len(t, events, 3)
	assert.Equal(t, "09:00", events[0].StartTime)
	assert.Equal(t, "10:00", events[0].EndTime)
	// open-ended window sorts after the bounded one with the same start
	assert.Equal(t, "09:00", events[1].StartTime)
	assert.Equal(t, "", events[1].EndTime)
	assert.Equal(t, "14:00", events[2].StartTime)
}

func TestGroupFirstHeadcountWins(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "10:00~12:00", PlaceText: "광화문", Headcount: "300"},
		{TimeText: "10:00~12:00", PlaceText: "시청", Headcount: "999"},
	}
	events := Group(rows)
	assert.Len(t, events, 1)
	assert.Equal(t, "300", events[0].Headcount)
}

func TestGroupRouteBecomesRemark(t *testing.T) {
	rows := []domain.RawRow{
		{TimeText: "13:00~15:00", PlaceText: "대학로 ※ 행진: 종로 → 시청"},
	}
	events := Group(rows)
	assert.Len(t, events, 1)
	assert.Equal(t, []string{"대학로"}, events[0].Places)
	assert.Equal(t, []string{"종로 → 시청"}, events[0].Remarks)
}

func TestGroupOrderInsensitiveForSameKey(t *testing.T) {
	a := []domain.RawRow{
		{TimeText: "10:00~12:00", PlaceText: "광화문"},
		{TimeText: "10:00~12:00", PlaceText: "시청"},
	}
	b := []domain.RawRow{a[1], a[0]}

	ea, eb := Group(a), Group(b)
	assert.Len(t, ea, 1)
	assert.Len(t, eb, 1)
	assert.ElementsMatch(t, ea[0].Places, eb[0].Places)
}

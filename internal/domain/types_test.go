package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordPadsCoordsToPlaces(t *testing.T) {
	e := Event{
		StartTime: "10:00",
		EndTime:   "12:00",
		Places:    []string{"광화문광장", "세종대로"},
	}
	r := NewRecord("id-1", Date{Year: "2026", Month: "08", Day: "31"}, e)

	assert.Equal(t, `["광화문광장","세종대로"]`, r.Places)
	lats := JSONFloatList(r.Lats)
	lons := JSONFloatList(r.Lons)
	require.Len(t, lats, 2, "one lat slot per place even without geocoding")
	require.Len(t, lons, 2)
	for i := range lats {
		assert.Nil(t, lats[i])
		assert.Nil(t, lons[i])
	}
}

func TestNewRecordKeepsResolvedCoords(t *testing.T) {
	lat, lon := 37.5759, 126.9769
	e := Event{
		StartTime: "10:00",
		EndTime:   "12:00",
		Places:    []string{"광화문광장", "세종대로"},
		Coords:    []Coord{{Lat: &lat, Lon: &lon}, {}},
	}
	r := NewRecord("id-2", Date{Year: "2026", Month: "08", Day: "31"}, e)

	lats := JSONFloatList(r.Lats)
	require.Len(t, lats, 2)
	require.NotNil(t, lats[0])
	assert.Equal(t, lat, *lats[0])
	assert.Nil(t, lats[1])
}

func TestNewRecordEmptyEvent(t *testing.T) {
	r := NewRecord("id-3", Date{Year: "2026", Month: "08", Day: "31"}, Event{})
	assert.Equal(t, "[]", r.Places)
	assert.Equal(t, "[]", r.Lats)
	assert.Equal(t, "[]", r.Lons)
}

package domain

import "encoding/json"

// RawRow is one physical row of a source document before grouping.
// It is produced by the locator/mapper and not retained past grouping.
type RawRow struct {
	TimeText   string
	PlaceText  string
	RemarkText string
	Headcount  string
}

// Coord is a resolved coordinate pair. Nil pointers mean the place
// could not be geocoded.
type Coord struct {
	Lat *float64
	Lon *float64
}

// Event is one parsed assembly occurrence: a time window with one or
// more places. Places and Remarks keep first-seen order and are unique.
// Coords always has the same length as Places, even when every entry
// is unresolved.
type Event struct {
	StartTime string
	EndTime   string
	Places    []string
	Remarks   []string
	Headcount string
	Coords    []Coord
}

// WithCoords returns a copy of the event with the given coordinate list.
// The original event is not modified.
func (e Event) WithCoords(coords []Coord) Event {
	out := e
	out.Coords = coords
	return out
}

// Date is a calendar date kept as zero-padded strings, matching the
// persisted column format.
type Date struct {
	Year  string
	Month string
	Day   string
}

func (d Date) IsZero() bool {
	return d.Year == "" && d.Month == "" && d.Day == ""
}

// GeocodeResult is one resolved coordinate with the query that produced it.
type GeocodeResult struct {
	Lat   float64
	Lon   float64
	Query string
}

// Record is the persisted row shape. Places, Lats and Lons are JSON
// array strings so the row round-trips through the CSV exports unchanged.
type Record struct {
	ID        string
	Year      string
	Month     string
	Day       string
	StartTime string
	EndTime   string
	Places    string
	Headcount string
	Lats      string
	Lons      string
	Remark    string
}

// TimeKey is the natural key a record is merged under.
func (r Record) TimeKey() [5]string {
	return [5]string{r.Year, r.Month, r.Day, r.StartTime, r.EndTime}
}

// PlaceList decodes the places column. A bare string becomes a
// one-element list; garbage decodes to nil.
func (r Record) PlaceList() []string {
	return JSONStringList(r.Places)
}

// NewRecord converts a geocoded event into a persistable record. The
// coordinate lists are padded with nulls so they always match the place
// list in length, including events that were never geocoded.
func NewRecord(id string, d Date, e Event) Record {
	n := len(e.Places)
	if len(e.Coords) > n {
		n = len(e.Coords)
	}
	lats := make([]*float64, n)
	lons := make([]*float64, n)
	for i, c := range e.Coords {
		lats[i] = c.Lat
		lons[i] = c.Lon
	}
	places := e.Places
	if places == nil {
		places = []string{}
	}
	return Record{
		ID:        id,
		Year:      d.Year,
		Month:     d.Month,
		Day:       d.Day,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Places:    mustJSON(places),
		Headcount: e.Headcount,
		Lats:      mustJSON(lats),
		Lons:      mustJSON(lons),
		Remark:    joinNonEmpty(e.Remarks),
	}
}

// JSONStringList decodes a JSON array of strings, tolerating a bare
// string or empty input.
func JSONStringList(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	var one string
	if err := json.Unmarshal([]byte(s), &one); err == nil && one != "" {
		return []string{one}
	}
	if s != "" && s[0] != '[' && s[0] != '"' {
		return []string{s}
	}
	return nil
}

// JSONFloatList decodes a JSON array of nullable floats.
func JSONFloatList(s string) []*float64 {
	var out []*float64
	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out
	}
	return nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " / "
		}
		out += p
	}
	return out
}

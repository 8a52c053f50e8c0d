package store

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/seoulwatch/jiphoe/internal/domain"
)

var (
	canonSpace = regexp.MustCompile(`\s+`)
	canonPunct = regexp.MustCompile("[\"'“”‘’`·ㆍ∙,，、･]+")
	stationNum = regexp.MustCompile(`(역)(\d+)$`)
)

// CanonToken canonicalizes a place token for overlap comparison:
// lowercase, no whitespace, no connector punctuation, and a single
// exit-number phrasing ("...번출구" collapses to "...번", a bare
// trailing digit after 역 gains the "번" suffix).
func CanonToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = canonSpace.ReplaceAllString(s, "")
	s = canonPunct.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "번출구", "번")
	s = stationNum.ReplaceAllString(s, "${1}${2}번")
	return s
}

func canonPlaceSet(places []string) map[string]bool {
	set := make(map[string]bool, len(places))
	for _, p := range places {
		if c := CanonToken(p); c != "" {
			set[c] = true
		}
	}
	return set
}

func overlapCount(a, b map[string]bool) int {
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}

// placeCoord pairs an original place string with its coordinates.
type placeCoord struct {
	place string
	lat   *float64
	lon   *float64
}

// MergeRecords unions the place and coordinate lists of two records
// sharing a time key. The existing record's values win; a nil existing
// coordinate is filled from the incoming record. The merged record
// keeps the existing row's identity.
func MergeRecords(existing, incoming domain.Record) domain.Record {
	emap, eorder := placeCoordMap(existing)
	nmap, norder := placeCoordMap(incoming)

	for _, c := range norder {
		n := nmap[c]
		if e, ok := emap[c]; ok {
			if e.lat == nil && n.lat != nil {
				e.lat = n.lat
			}
			if e.lon == nil && n.lon != nil {
				e.lon = n.lon
			}
			emap[c] = e
		} else {
			emap[c] = n
			eorder = append(eorder, c)
		}
	}

	places := make([]string, 0, len(eorder))
	lats := make([]*float64, 0, len(eorder))
	lons := make([]*float64, 0, len(eorder))
	for _, c := range eorder {
		pc := emap[c]
		places = append(places, pc.place)
		lats = append(lats, pc.lat)
		lons = append(lons, pc.lon)
	}

	out := existing
	out.Places = marshalJSON(places)
	out.Lats = marshalJSON(lats)
	out.Lons = marshalJSON(lons)
	if out.Headcount == "" {
		out.Headcount = incoming.Headcount
	}
	if out.Remark == "" {
		out.Remark = incoming.Remark
	}
	return out
}

// placeCoordMap indexes a record's places by canonical token, keeping
// first-seen order.
func placeCoordMap(r domain.Record) (map[string]placeCoord, []string) {
	places := r.PlaceList()
	lats := domain.JSONFloatList(r.Lats)
	lons := domain.JSONFloatList(r.Lons)

	m := make(map[string]placeCoord, len(places))
	var order []string
	for i, p := range places {
		c := CanonToken(p)
		if c == "" {
			continue
		}
		if _, ok := m[c]; ok {
			continue
		}
		pc := placeCoord{place: p}
		if i < len(lats) {
			pc.lat = lats[i]
		}
		if i < len(lons) {
			pc.lon = lons[i]
		}
		m[c] = pc
		order = append(order, c)
	}
	return m, order
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

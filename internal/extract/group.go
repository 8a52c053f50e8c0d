package extract

import (
	"sort"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/normalize"
)

type timeKey struct {
	start string
	end   string
}

// Group merges raw rows sharing the same (start, end) key into events.
// Place and remark lists are unioned additively, preserving first-seen
// order across the merge. Rows without a parseable time range are
// dropped; rows with neither places nor remarks are dropped.
//
// The result is ordered by (start, end) ascending, with open-ended or
// unknown end times sorting last.
func Group(rows []domain.RawRow) []domain.Event {
	byKey := make(map[timeKey]*domain.Event)
	var order []timeKey

	for _, row := range rows {
		start, end, ok := TimeRange(row.TimeText)
		if !ok {
			// Some sources wrap the time into a neighboring cell.
			start, end, ok = TimeRange(row.PlaceText + " " + row.RemarkText)
			if !ok {
				continue
			}
		}

		placeText, route := SplitRoute(row.PlaceText)
		places := SplitPlaces(placeText)

		var remarks []string
		if route != "" {
			remarks = append(remarks, normalize.Clean(route))
		}
		if r := normalize.Clean(row.RemarkText); r != "" {
			remarks = append(remarks, r)
		}

		if len(places) == 0 && len(remarks) == 0 {
			continue
		}

		key := timeKey{start, end}
		ev, found := byKey[key]
		if !found {
			ev = &domain.Event{StartTime: start, EndTime: end}
			byKey[key] = ev
			order = append(order, key)
		}
		ev.Places = appendUnique(ev.Places, places)
		ev.Remarks = appendUnique(ev.Remarks, remarks)
		if ev.Headcount == "" {
			ev.Headcount = row.Headcount
		}
	}

	out := make([]domain.Event, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := TimeToMinutes(out[i].StartTime), TimeToMinutes(out[j].StartTime)
		if si != sj {
			return si < sj
		}
		return TimeToMinutes(out[i].EndTime) < TimeToMinutes(out[j].EndTime)
	})
	return out
}

func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		dst = append(dst, s)
	}
	return dst
}

package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/seoulwatch/jiphoe/internal/normalize"
)

// Region is a located tabular area: one row of cell texts per physical
// table row, header included.
type Region struct {
	Rows [][]string
}

// Containers that hold the listing when no table qualifies. The notice
// body selector comes first; generic content tags after.
var fallbackSelectors = []string{
	"li.notice_contents",
	"div.notice_contents",
	"article",
	"section",
}

// LocateHTML finds the one table that holds the time/place listing.
// Every table is scored by (time_hits, long_hits): data rows with a
// time-range cell, and data rows with a cell of >= 10 characters. The
// lexicographically greatest tuple wins; ties keep the first table.
//
// When no table scores a time hit, the raw text of a known content
// container (or the whole document) is returned instead so the caller
// can fall back to pattern-splitting. Both results empty means the
// document holds no text at all.
func LocateHTML(doc *goquery.Document) (*Region, string) {
	var best *Region
	bestTime, bestLong := -1, -1

	doc.Find("table").Each(func(_ int, tb *goquery.Selection) {
		region := tableRegion(tb)
		if len(region.Rows) < 2 {
			return
		}
		timeHits, longHits := scoreRegion(region)
		if timeHits > bestTime || (timeHits == bestTime && longHits > bestLong) {
			best = region
			bestTime, bestLong = timeHits, longHits
		}
	})

	if best != nil && bestTime > 0 {
		return best, ""
	}

	for _, sel := range fallbackSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := joinedText(s); strings.TrimSpace(text) != "" {
				return nil, text
			}
		}
	}
	return nil, joinedText(doc.Selection)
}

func tableRegion(tb *goquery.Selection) *Region {
	region := &Region{}
	body := tb.Find("tbody").First()
	if body.Length() == 0 {
		body = tb
	}
	body.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td, th").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, normalize.Clean(joinedText(c)))
		})
		if len(cells) > 0 {
			region.Rows = append(region.Rows, cells)
		}
	})
	return region
}

func scoreRegion(r *Region) (timeHits, longHits int) {
	for _, row := range r.Rows[1:] {
		hasTime, hasLong := false, false
		for _, cell := range row {
			if HasTimeRange(cell) {
				hasTime = true
			}
			if len([]rune(cell)) >= 10 {
				hasLong = true
			}
		}
		if hasTime {
			timeHits++
		}
		if hasLong {
			longHits++
		}
	}
	return
}

// joinedText collects text nodes separated by single spaces, so text in
// sibling <p> blocks does not run together the way Selection.Text()
// leaves it.
func joinedText(s *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.TrimSpace(sb.String())
}

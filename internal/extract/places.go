package extract

import (
	"regexp"
	"strings"

	"github.com/seoulwatch/jiphoe/internal/normalize"
)

var (
	bulletGlyphs = regexp.MustCompile(`[①②③④⑤⑥⑦⑧⑨⑩⑪⑫⑬⑭⑮■◆▶•∙·★☆※�]`)
	parenAside   = regexp.MustCompile(`[（(][^)）]*[)）]`)
	commaGlyphs  = regexp.MustCompile(`[，、･]+`)

	// Path and alternation separators between place tokens.
	placeSep = regexp.MustCompile(`\s*(?:→|↔|⟷|↦|↪|➝|➔|~|〜|∼|-|–|—|/|,|>|▶|⇒)\s*`)

	// A marching-route sub-clause embedded in a place cell.
	routeMarker = regexp.MustCompile(`※\s*(?:행진|이동)\s*:?\s*`)

	letterRun = regexp.MustCompile(`[가-힣A-Za-z]`)
)

// SplitRoute separates an embedded route sub-clause ("※ 행진: ...")
// from the primary place text. The route text becomes a remark, never
// a place token.
func SplitRoute(text string) (place, route string) {
	loc := routeMarker.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]], strings.TrimSpace(text[loc[1]:])
}

// CleanPlaceText strips bullet and numbering glyphs, parenthesized
// asides (lane counts, sidewalk notes) and stray list punctuation.
func CleanPlaceText(s string) string {
	if s == "" {
		return ""
	}
	s = normalize.Clean(s)
	s = bulletGlyphs.ReplaceAllString(s, " ")
	s = parenAside.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "出", "")
	s = commaGlyphs.ReplaceAllString(s, " ")
	s = normalize.Clean(s)
	return strings.Trim(s, " -–—~→↔⟷↦↪>/")
}

// SplitPlaces decomposes one place cell into an ordered, de-duplicated
// list of place tokens. Pure punctuation fragments are dropped.
func SplitPlaces(text string) []string {
	s := CleanPlaceText(text)
	if s == "" {
		return nil
	}
	parts := placeSep.Split(s, -1)

	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Noise: length <= 1 with no letter in it.
		if len([]rune(p)) <= 1 && !letterRun.MatchString(p) {
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Package normalize canonicalizes raw text fragments pulled out of
// notice pages and PDF extractions: whitespace, separator glyphs,
// full-width digits and header labels.
package normalize

import (
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	tildeGlyph = strings.NewReplacer("∼", "~", "〜", "~")
	dashGlyph  = strings.NewReplacer("–", "-", "—", "-")
)

// fullWidthDigits maps full-width digits (and 〇) to ASCII.
var fullWidthDigits = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"〇", "0",
)

// Clean collapses whitespace runs (including NBSP) to a single space,
// unifies separator glyphs, strips soft hyphens and converts full-width
// digits to ASCII. Total function: empty input yields "".
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, "­", "") // soft hyphen
	s = fullWidthDigits.Replace(s)
	s = tildeGlyph.Replace(s)
	s = dashGlyph.Replace(s)
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Label normalizes a header label for keyword matching: Clean plus
// removal of all remaining whitespace, so a split label like "시 간"
// still matches "시간".
func Label(s string) string {
	return strings.ReplaceAll(Clean(s), " ", "")
}

// NoSpace strips every whitespace run, used for containment checks
// against keyword lists.
func NoSpace(s string) string {
	return spaceRun.ReplaceAllString(s, "")
}

var (
	korThenLatin = regexp.MustCompile(`([가-힣])([A-Za-z0-9])`)
	latinThenKor = regexp.MustCompile(`([A-Za-z0-9])([가-힣])`)
)

// SpaceKoreanBoundaries inserts a space between a Korean run and an
// adjacent letter/digit run. Search APIs tokenize "서울역12" poorly
// without the boundary.
func SpaceKoreanBoundaries(s string) string {
	s = korThenLatin.ReplaceAllString(s, "$1 $2")
	s = latinThenKor.ReplaceAllString(s, "$1 $2")
	return s
}

var hangulSyllable = regexp.MustCompile(`^[가-힣]$`)

// CollapseKoreanGaps re-joins runs of single Hangul syllables separated
// by spaces ("집 회" -> "집회"), an artifact of column-wrapped PDF text.
// Runs longer than five syllables are left alone.
func CollapseKoreanGaps(s string) string {
	toks := strings.Fields(s)
	var out []string
	for i := 0; i < len(toks); {
		if !hangulSyllable.MatchString(toks[i]) {
			out = append(out, toks[i])
			i++
			continue
		}
		j := i
		for j < len(toks) && hangulSyllable.MatchString(toks[j]) {
			j++
		}
		if n := j - i; n >= 2 && n <= 5 {
			out = append(out, strings.Join(toks[i:j], ""))
		} else {
			out = append(out, toks[i:j]...)
		}
		i = j
	}
	return strings.Join(out, " ")
}

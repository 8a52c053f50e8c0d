package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headcountUnit = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)\s*명`)
	bareNumber    = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d{3,})`)
)

// Headcount finds an expected-attendance figure inside a row chunk and
// returns it with its byte span so the caller can cut it out of the
// surrounding text. The returned value has thousands separators removed.
//
// A "N명" phrase wins; otherwise any comma-grouped or >= 100 bare number
// qualifies, except numbers immediately followed by 出 (exit numbers in
// the source use hanja).
func Headcount(chunk string) (value string, span [2]int, ok bool) {
	if m := headcountUnit.FindStringSubmatchIndex(chunk); m != nil {
		raw := chunk[m[2]:m[3]]
		return strings.ReplaceAll(raw, ",", ""), [2]int{m[0], m[1]}, true
	}
	for _, m := range bareNumber.FindAllStringIndex(chunk, -1) {
		raw := chunk[m[0]:m[1]]
		if strings.HasPrefix(chunk[m[1]:], "出") {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			continue
		}
		if n >= 100 || strings.Contains(raw, ",") {
			return strings.ReplaceAll(raw, ",", ""), [2]int{m[0], m[1]}, true
		}
	}
	return "", [2]int{}, false
}

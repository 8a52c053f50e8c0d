package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/seoulwatch/jiphoe/internal/normalize"
)

var (
	// "18\n:00" and "12:00\n~\n13:30" show up in column-wrapped PDF text.
	brokenHour  = regexp.MustCompile(`(\d{1,2})\s*\n\s*:\s*(\d{2})`)
	brokenRange = regexp.MustCompile(`(\d{1,2}\s*:\s*\d{2})\s*\n\s*([~\-])\s*\n?\s*(\d{1,2}\s*:\s*\d{2})`)

	rangeRE  = regexp.MustCompile(`(\d{1,2})\s*:\s*(\d{2})\s*[~\-]\s*(\d{1,2})\s*:\s*(\d{2})`)
	singleRE = regexp.MustCompile(`(\d{1,2})\s*:\s*(\d{2})`)
)

// RejoinBrokenTimes repairs time tokens that were split across line
// breaks before any pattern matching runs.
func RejoinBrokenTimes(text string) string {
	text = strings.NewReplacer("∼", "~", "〜", "~", "–", "-", "—", "-").Replace(text)
	text = brokenHour.ReplaceAllString(text, "$1:$2")
	text = brokenRange.ReplaceAllString(text, "$1$2$3")
	return text
}

// TimeRange parses a time expression into zero-padded (start, end)
// HH:MM strings. A lone start time is valid and yields end == "".
// ok is false when no time token is present at all.
func TimeRange(text string) (start, end string, ok bool) {
	if text == "" {
		return "", "", false
	}
	t := RejoinBrokenTimes(text)
	t = normalize.Clean(t)

	if m := rangeRE.FindStringSubmatch(t); m != nil {
		return padTime(m[1], m[2]), padTime(m[3], m[4]), true
	}
	if m := singleRE.FindStringSubmatch(t); m != nil {
		return padTime(m[1], m[2]), "", true
	}
	return "", "", false
}

// HasTimeRange reports whether text contains a full start~end range.
// The locator scores candidate regions with it.
func HasTimeRange(text string) bool {
	return rangeRE.MatchString(normalize.Clean(RejoinBrokenTimes(text)))
}

func padTime(h, m string) string {
	hi, _ := strconv.Atoi(h)
	mi, _ := strconv.Atoi(m)
	return fmt.Sprintf("%02d:%02d", hi, mi)
}

// TimeToMinutes converts "HH:MM" to minutes since midnight. Anything
// unparseable (including the open-ended empty string) sorts last.
func TimeToMinutes(t string) int {
	h, m, found := strings.Cut(t, ":")
	if !found {
		return 99999
	}
	hi, err1 := strconv.Atoi(strings.TrimSpace(h))
	mi, err2 := strconv.Atoi(strings.TrimSpace(m))
	if err1 != nil || err2 != nil {
		return 99999
	}
	return hi*60 + mi
}

package extract

import (
	"regexp"
	"strings"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/normalize"
)

var angleAux = regexp.MustCompile(`<([^>]+)>`)

// RowsFromText splits raw document text (typically a PDF extraction)
// into rows at every time-range match. The span between one match and
// the next becomes that row's content: a headcount figure is cut out,
// angle-bracketed auxiliary notes move to the remark, and the text
// before the headcount is the place block.
func RowsFromText(text string) []domain.RawRow {
	text = RejoinBrokenTimes(text)

	matches := rangeRE.FindAllStringIndex(text, -1)
	var out []domain.RawRow
	for i, m := range matches {
		timeText := text[m[0]:m[1]]

		chunkEnd := len(text)
		if i+1 < len(matches) {
			chunkEnd = matches[i+1][0]
		}
		chunk := strings.TrimSpace(text[m[1]:chunkEnd])

		head, span, found := Headcount(chunk)
		before, after := chunk, ""
		if found {
			before = chunk[:span[0]]
			after = chunk[span[1]:]
		}

		placeBlock := strings.TrimSpace(before)
		aux := strings.Join(angleAux.FindAllString(placeBlock, -1), " ")
		aux = strings.NewReplacer("<", "", ">", "").Replace(aux)
		placeBlock = angleAux.ReplaceAllString(placeBlock, " ")

		remark := strings.TrimSpace(strings.Join(trimNonEmpty(after, aux), " "))
		remark = normalize.CollapseKoreanGaps(normalize.Clean(remark))

		out = append(out, domain.RawRow{
			TimeText:   timeText,
			PlaceText:  placeBlock,
			RemarkText: remark,
			Headcount:  head,
		})
	}
	return out
}

func trimNonEmpty(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

package geocode

import (
	"regexp"
	"strings"

	"github.com/seoulwatch/jiphoe/internal/normalize"
)

// CandidateOptions tunes query-candidate generation.
type CandidateOptions struct {
	// Cap bounds the final candidate list.
	Cap int
	// PrefixTop is how many leading candidates receive city/district
	// prefixed variants.
	PrefixTop int
	// City prepended in prefixed variants, e.g. "서울".
	City string
	// Aliases maps colloquial short names to the canonical institution
	// name the search index actually carries.
	Aliases map[string]string
}

// DefaultCandidateOptions returns the tuned defaults.
func DefaultCandidateOptions() CandidateOptions {
	return CandidateOptions{
		Cap:       50,
		PrefixTop: 6,
		City:      "서울",
		Aliases: map[string]string{
			"시청":     "서울시청",
			"정부청사":   "정부서울청사",
			"서울청사":   "정부서울청사",
			"세종문화":   "세종문화회관",
			"광화문네거리": "광화문 교차로",
			"보신각":    "보신각 종각",
		},
	}
}

var (
	parenBlock = regexp.MustCompile(`[（(][^)）]*[)）]`)
	lanePhrase = regexp.MustCompile(`\d+\s*개?\s*차로|전\s*차로|인도\s*포함`)
	exitPhrase = regexp.MustCompile(`(\d+)\s*번?\s*출구`)
	stationRE  = regexp.MustCompile(`(.*?역)\s*(\d+)번 출구`)
	pbToken    = regexp.MustCompile(`(?i)\bPB\b`)

	multiSpace = regexp.MustCompile(`\s{2,}`)
)

// Building-side and gate qualifiers, each expanded to the phrasings the
// search index may carry instead.
var wingSynonyms = map[string][]string{
	"본관": {"본관"},
	"별관": {"별관", "신관"},
	"동관": {"동관", "동문"},
	"서관": {"서관", "서문"},
	"남관": {"남관", "남문", "남측 출입구"},
	"북관": {"북관", "북문"},
	"정문": {"정문"},
	"후문": {"후문", "뒷문"},
	"동문": {"동문"},
	"서문": {"서문"},
	"남문": {"남문"},
	"북문": {"북문"},
}

// Proximity words that hurt search precision as query terms.
var noiseQualifiers = map[string]bool{
	"앞": true, "맞은편": true, "건너편": true, "일대": true,
	"인근": true, "부근": true, "주변": true, "방면": true, "방향": true,
	"사거리앞": true, "교차로앞": true,
}

// Compound-noun suffixes the search index is inconsistent about
// spacing; both joined and spaced forms are tried.
var compoundSuffixes = []string{
	"빌딩", "타워", "센터", "회관", "광장", "공원", "청사", "병원", "호텔", "대학교",
}

// Landmark terms worth lifting out of remark/route text.
var contextTerm = regexp.MustCompile(`[가-힣A-Za-z0-9]{2,}(?:대로|광장|사거리|교차로|공원|청사|빌딩|센터|주민센터|회관|학교|대학|병원|역(?:\s*\d+번\s*출구)?)`)

// NormalizeBasic canonicalizes one place token for querying: ASCII
// digits, hanja exit markers, a boundary space between Korean and
// letter/digit runs, and uniform "N번 출구" phrasing.
func NormalizeBasic(place string) string {
	t := normalize.Clean(place)
	t = strings.NewReplacer("出口", "출구", "出", "출구", "口", "출구").Replace(t)
	t = normalize.SpaceKoreanBoundaries(t)
	t = exitPhrase.ReplaceAllString(t, "$1번 출구")
	return strings.TrimSpace(multiSpace.ReplaceAllString(t, " "))
}

// cleanBase canonicalizes a place token and strips parenthetical blocks
// and lane-closure phrases, which never appear in search titles. Both
// candidate generation and result scoring go through this.
func cleanBase(place string) string {
	base := NormalizeBasic(place)
	base = parenBlock.ReplaceAllString(base, " ")
	base = lanePhrase.ReplaceAllString(base, " ")
	return strings.TrimSpace(multiSpace.ReplaceAllString(base, " "))
}

// BuildCandidates generates a ranked list of distinct search queries
// for one place token, most likely to resolve first. The remark text
// supplies district hints and contextual landmark terms.
func BuildCandidates(place, remark string, opt CandidateOptions) []string {
	if opt.Cap <= 0 {
		opt.Cap = 50
	}
	if opt.City == "" {
		opt.City = "서울"
	}

	base := cleanBase(place)
	if base == "" {
		return nil
	}

	core, wings := splitQualifiers(base)

	var list []string
	seen := make(map[string]bool)
	add := func(q string) {
		q = strings.TrimSpace(multiSpace.ReplaceAllString(q, " "))
		if q == "" || seen[q] {
			return
		}
		seen[q] = true
		list = append(list, q)
	}

	add(base)
	if core != base {
		add(core)
	}
	if alias, ok := opt.Aliases[normalize.NoSpace(core)]; ok {
		add(alias)
	}

	for _, w := range wings {
		for _, syn := range wingSynonyms[w] {
			add(core + " " + syn)
		}
	}

	// Station exit variants: the index carries several phrasings.
	if m := stationRE.FindStringSubmatch(core); m != nil {
		st, num := strings.TrimSpace(m[1]), m[2]
		add(st + " " + num + "번 출구")
		add(st + " " + num + "번출구")
		add(st + " " + num + " 출구")
		add(st)
	}

	// Police-box shorthand.
	if pbToken.MatchString(core) {
		stub := strings.TrimSpace(pbToken.ReplaceAllString(core, ""))
		add(stub + " 파출소")
		add(stub + " 지구대")
		add(stub + " 경찰박스")
	}
	if strings.Contains(core, "삼각지") && !strings.Contains(core, "역") {
		add("삼각지역")
		add("삼각지 사거리")
		add("삼각지 교차로")
	}

	// Spacing variants against common compound suffixes.
	for _, q := range append([]string{}, list...) {
		for _, v := range spacingVariants(q) {
			add(v)
		}
	}

	// Contextual landmark terms appended to the core.
	for _, tok := range ContextTerms(remark) {
		add(core + " " + tok)
	}

	// Administrative-area prefixes ahead of their unprefixed forms.
	gu := DistrictHint(remark)
	top := opt.PrefixTop
	if top <= 0 || top > len(list) {
		top = len(list)
	}
	var out []string
	outSeen := make(map[string]bool)
	push := func(q string) {
		if q != "" && !outSeen[q] {
			outSeen[q] = true
			out = append(out, q)
		}
	}
	for i, q := range list {
		if i < top {
			if gu != "" {
				push(opt.City + " " + gu + " " + q)
			}
			push(opt.City + " " + q)
		}
		push(q)
	}

	if len(out) > opt.Cap {
		out = out[:opt.Cap]
	}
	return out
}

// ContextTerms extracts landmark terms (roads, plazas, stations with
// optional exit numbers, public buildings) from remark/route text.
func ContextTerms(remark string) []string {
	if remark == "" {
		return nil
	}
	cleaned := NormalizeBasic(remark)
	var out []string
	seen := make(map[string]bool)
	for _, tok := range contextTerm.FindAllString(cleaned, -1) {
		tok = strings.TrimSpace(tok)
		if len([]rune(normalize.NoSpace(tok))) > 12 {
			continue
		}
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

// splitQualifiers peels wing/gate qualifiers off the core name and
// drops proximity noise outright.
func splitQualifiers(base string) (core string, wings []string) {
	var kept []string
	for _, tok := range strings.Fields(base) {
		if _, ok := wingSynonyms[tok]; ok {
			wings = append(wings, tok)
			continue
		}
		if noiseQualifiers[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	core = strings.Join(kept, " ")
	if core == "" {
		core = base
	}
	return core, wings
}

func spacingVariants(q string) []string {
	var out []string
	for _, suf := range compoundSuffixes {
		if strings.HasSuffix(q, " "+suf) {
			out = append(out, strings.TrimSuffix(q, " "+suf)+suf)
		} else if strings.HasSuffix(q, suf) && len(q) > len(suf) {
			stem := strings.TrimSuffix(q, suf)
			if !strings.HasSuffix(stem, " ") {
				out = append(out, stem+" "+suf)
			}
		}
	}
	return out
}

package geocode

import "regexp"

var guPattern = regexp.MustCompile(`(종로구|중구|용산구|성동구|광진구|동대문구|중랑구|성북구|강북구|도봉구|노원구|은평구|서대문구|마포구|양천구|강서구|구로구|금천구|영등포구|동작구|관악구|서초구|강남구|송파구|강동구)`)

// policeToGu maps police-station shorthand in remark text to the
// district it covers.
var policeToGu = map[string]string{
	"종로서": "종로구", "남대문서": "중구", "중부서": "중구", "용산서": "용산구",
	"서대문서": "서대문구", "마포서": "마포구", "영등포서": "영등포구", "동작서": "동작구",
	"관악서": "관악구", "금천서": "금천구", "구로서": "구로구", "강서서": "강서구",
	"양천서": "양천구", "강남서": "강남구", "서초서": "서초구", "송파서": "송파구",
	"강동서": "강동구", "동대문서": "동대문구", "성북서": "성북구", "노원서": "노원구",
	"도봉서": "도봉구", "강북서": "강북구", "성동서": "성동구", "광진서": "광진구",
	"은평서": "은평구",
}

var policeStation = regexp.MustCompile(`[가-힣]{2,4}서`)

// DistrictHint infers an administrative district ("구") from context
// text: an explicit gu name wins, then a police-station shorthand.
// Empty string when nothing matches.
func DistrictHint(text string) string {
	if text == "" {
		return ""
	}
	if m := guPattern.FindString(text); m != "" {
		return m
	}
	for _, st := range policeStation.FindAllString(text, -1) {
		if gu, ok := policeToGu[st]; ok {
			return gu
		}
	}
	return ""
}

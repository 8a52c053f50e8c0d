package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const scheduleTable = `
<table>
  <tbody>
    <tr><th>연번</th><th>집회시간</th><th>집회장소</th><th>비고</th></tr>
    <tr><td>1</td><td>10:00~12:00</td><td>광화문광장 남측 일대</td><td>차로 행진</td></tr>
    <tr><td>2</td><td>14:00~16:00</td><td>세종대로 → 서울역 방면</td><td></td></tr>
  </tbody>
</table>`

func TestLocateHTMLPicksScheduleTable(t *testing.T) {
	html := `<html><body>
	  <table><tr><td>메뉴</td><td>홈</td></tr><tr><td>로그인</td><td>회원가입</td></tr></table>
	  ` + scheduleTable + `
	</body></html>`
	region, text := LocateHTML(mustDoc(t, html))
	require.NotNil(t, region)
	assert.Empty(t, text)
	assert.Len(t, region.Rows, 3)
	assert.Contains(t, region.Rows[1][1], "10:00~12:00")
}

func TestLocateHTMLFallsBackToContainerText(t *testing.T) {
	html := `<html><body>
	  <li class="notice_contents"><p>07:30~24:00 세종대로 전 차로</p><p>우회 바랍니다</p></li>
	</body></html>`
	region, text := LocateHTML(mustDoc(t, html))
	assert.Nil(t, region)
	assert.Contains(t, text, "07:30~24:00")
	assert.Contains(t, text, "우회 바랍니다")
}

func TestLocateHTMLFallsBackToWholeDocument(t *testing.T) {
	html := `<html><body><div>09:00~11:00 광화문</div></body></html>`
	region, text := LocateHTML(mustDoc(t, html))
	assert.Nil(t, region)
	assert.Contains(t, text, "09:00~11:00 광화문")
}

func TestLocateHTMLEmptyDocument(t *testing.T) {
	region, text := LocateHTML(mustDoc(t, "<html><body></body></html>"))
	assert.Nil(t, region)
	assert.Empty(t, strings.TrimSpace(text))
}

func TestLocateHTMLSkipsScriptText(t *testing.T) {
	html := `<html><body><article>본문 내용<script>var x = "10:00~12:00";</script></article></body></html>`
	_, text := LocateHTML(mustDoc(t, html))
	assert.NotContains(t, text, "var x")
}

func TestJoinedTextSeparatesBlocks(t *testing.T) {
	doc := mustDoc(t, "<div><p>첫째 줄</p><p>둘째 줄</p></div>")
	assert.Equal(t, "첫째 줄 둘째 줄", joinedText(doc.Find("div")))
}

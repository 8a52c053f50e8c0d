package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulwatch/jiphoe/internal/domain"
)

func TestIsEventTitle(t *testing.T) {
	assert.True(t, IsEventTitle("오늘의 행사 및 집회 (8.31.)"))
	assert.True(t, IsEventTitle("행사/집회 안내"))
	assert.True(t, IsEventTitle("주요 행사·집회에 따른 교통 안내"))
	assert.False(t, IsEventTitle("도로 공사 안내"))
	assert.False(t, IsEventTitle("행사 일정"))
}

func TestParseDateAny(t *testing.T) {
	d, ok := ParseDateAny("2026-08-31")
	require.True(t, ok)
	assert.Equal(t, domain.Date{Year: "2026", Month: "08", Day: "31"}, d)

	d, ok = ParseDateAny("2026.8.5")
	require.True(t, ok)
	assert.Equal(t, domain.Date{Year: "2026", Month: "08", Day: "05"}, d)

	d, ok = ParseDateAny("2026년 8월 31일")
	require.True(t, ok)
	assert.Equal(t, domain.Date{Year: "2026", Month: "08", Day: "31"}, d)

	_, ok = ParseDateAny("날짜 미상")
	assert.False(t, ok)
}

func TestDateFromTitle(t *testing.T) {
	d, ok := DateFromTitle("오늘의 집회 250822 금")
	require.True(t, ok)
	assert.Equal(t, domain.Date{Year: "2025", Month: "08", Day: "22"}, d)

	_, ok = DateFromTitle("오늘의 집회")
	assert.False(t, ok)
}

func TestDateFromTitleLongRuns(t *testing.T) {
	// An eight-digit run reads as YYYYMMDD, never as a truncated YYMMDD.
	d, ok := DateFromTitle("집회_20250831.pdf")
	require.True(t, ok)
	assert.Equal(t, domain.Date{Year: "2025", Month: "08", Day: "31"}, d)

	// Digit runs of other lengths are not dates.
	_, ok = DateFromTitle("문서번호 1234567")
	assert.False(t, ok)

	// Six digits with an impossible month are rejected.
	_, ok = DateFromTitle("접수 991340")
	assert.False(t, ok)

	// The first plausible run wins when several are present.
	d, ok = DateFromTitle("자료 0099 오늘의 집회 250822")
	require.True(t, ok)
	assert.Equal(t, domain.Date{Year: "2025", Month: "08", Day: "22"}, d)
}

func TestSelectLatest(t *testing.T) {
	posts := []Post{
		{Number: "100", Title: "행사 및 집회 안내", Date: "2026-08-30"},
		{Number: "103", Title: "행사 및 집회 안내", Date: "2026-08-31"},
		{Number: "200", Title: "도로 공사 안내", Date: "2026-09-01"},
	}
	seq, date, ok := selectLatest(posts)
	require.True(t, ok)
	assert.Equal(t, 103, seq)
	assert.Equal(t, "31", date.Day)
}

func TestSelectLatestNoEventPosts(t *testing.T) {
	_, _, ok := selectLatest([]Post{{Number: "1", Title: "공지"}})
	assert.False(t, ok)
}

func TestSelectLatestUnreadableDateFallsBackToToday(t *testing.T) {
	seq, date, ok := selectLatest([]Post{{Number: "7", Title: "행사 및 집회", Date: "어제"}})
	require.True(t, ok)
	assert.Equal(t, 7, seq)
	assert.Equal(t, Today(), date)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "오늘의_집회_250822.pdf", sanitizeFilename("오늘의 집회 250822.pdf"))
	assert.Equal(t, "a_.._b", sanitizeFilename("a/../b"))
}

func TestFilenameFromCD(t *testing.T) {
	assert.Equal(t, "일일집회.pdf",
		filenameFromCD(`attachment; filename*=UTF-8''%EC%9D%BC%EC%9D%BC%EC%A7%91%ED%9A%8C.pdf`))
	assert.Equal(t, "daily.pdf", filenameFromCD(`attachment; filename="daily.pdf"`))
	assert.Equal(t, "", filenameFromCD(""))
}

func TestIsPDF(t *testing.T) {
	assert.True(t, isPDF("application/pdf", []byte("%PDF-1.7")))
	assert.True(t, isPDF("application/octet-stream", []byte("%PDF-1.4")))
	assert.False(t, isPDF("text/html", []byte("<html>")))
}

const listPage = `<html><body>
<script>
var noticeList = [{"mgrSeq": 341, "title": "행사 및 집회 안내", "regDt": "2026-08-31"},
                  {"mgrSeq": 340, "title": "행사 및 집회 안내", "regDt": "2026-08-30"}];
</script>
</body></html>`

func TestSpaticLatestDetail(t *testing.T) {
	const detail = "<html><body><table><tr><th>시간</th><th>장소</th></tr><tr><td>10:00~12:00</td><td>광화문광장</td></tr></table></body></html>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spatic/main/assem.do":
			w.Write([]byte(listPage))
		case "/spatic/assem/getInfoView.do":
			assert.Equal(t, "341", r.URL.Query().Get("mgrSeq"))
			w.Write([]byte(detail))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(Config{SpaticBase: srv.URL}, nil)
	html, date, err := c.SpaticLatestDetail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, detail, html)
	assert.Equal(t, domain.Date{Year: "2026", Month: "08", Day: "31"}, date)
}

func TestSpaticLatestDetailAnchorFallback(t *testing.T) {
	const list = `<html><body><table>
	<tr><td><a href="/spatic/assem/getInfoView.do?mgrSeq=55">행사 및 집회 안내</a></td><td>2026-08-29</td></tr>
	</table></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spatic/main/assem.do":
			w.Write([]byte(list))
		case "/spatic/assem/getInfoView.do":
			w.Write([]byte("<html><body>detail</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(Config{SpaticBase: srv.URL}, nil)
	_, date, err := c.SpaticLatestDetail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "29", date.Day)
}

func TestSpaticLatestDetailNoListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>점검 중</body></html>"))
	}))
	defer srv.Close()

	c := New(Config{SpaticBase: srv.URL}, nil)
	_, _, err := c.SpaticLatestDetail(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

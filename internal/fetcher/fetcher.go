// Package fetcher locates and retrieves the source documents: the
// SPATIC assembly-notice detail page and the SMPA daily bulletin PDF.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/normalize"
)

// ErrSourceUnavailable signals that no usable source document could be
// located or fetched. The run aborts on it.
var ErrSourceUnavailable = errors.New("fetcher: source unavailable")

// Config holds the source site bases. Endpoints are injected, never
// compiled in as constants elsewhere.
type Config struct {
	SpaticBase string
	SMPABase   string
	Timeout    time.Duration
	UserAgent  string
}

// DefaultConfig returns the production site bases.
func DefaultConfig() Config {
	return Config{
		SpaticBase: "https://www.spatic.go.kr",
		SMPABase:   "https://www.smpa.go.kr",
		Timeout:    15 * time.Second,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// Client fetches the listing and detail documents.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New creates a fetcher client. A nil logger discards output.
func New(cfg Config, log *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.SpaticBase == "" {
		cfg.SpaticBase = def.SpaticBase
	}
	if cfg.SMPABase == "" {
		cfg.SMPABase = def.SMPABase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Post is one listing entry on the SPATIC notice board.
type Post struct {
	Number string
	Title  string
	Date   string
}

var (
	mgrSeqHref = regexp.MustCompile(`mgrSeq=(\d+)`)
	eventTitle = regexp.MustCompile(`행사\s*(?:및|/|‧|\||,)\s*집회`)
	digits     = regexp.MustCompile(`\d+`)

	// Embedded-script JSON shapes the listing page has shipped over time.
	scriptListPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)var\s+\w*[Ll]ist\w*\s*=\s*(\[.*?\]);`),
		regexp.MustCompile(`(?s)\w*[Dd]ata\w*\s*=\s*(\[.*?\]);`),
		regexp.MustCompile(`(?s)resultList["']?\s*:\s*(\[.*?\])`),
		regexp.MustCompile(`(\[\{[^}]*['"]mgrSeq['"][^}]*\}[^\]]*\])`),
	}
)

// IsEventTitle reports whether a post title is an assembly/event
// listing, tolerating "행사 및 집회", "행사/집회" and similar variants.
func IsEventTitle(title string) bool {
	t := normalize.Clean(title)
	if eventTitle.MatchString(t) {
		return true
	}
	return strings.Contains(t, "행사") && strings.Contains(t, "집회")
}

// SpaticLatestDetail finds the newest assembly-notice post, fetches its
// detail page, and returns the HTML together with the posting date.
func (c *Client) SpaticLatestDetail(ctx context.Context) (string, domain.Date, error) {
	listURL := c.cfg.SpaticBase + "/spatic/main/assem.do"
	body, err := c.getWithRetry(ctx, listURL)
	if err != nil {
		return "", domain.Date{}, fmt.Errorf("%w: list fetch: %v", ErrSourceUnavailable, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", domain.Date{}, fmt.Errorf("%w: list parse: %v", ErrSourceUnavailable, err)
	}

	posts := c.parsePosts(doc)
	seq, date, ok := selectLatest(posts)
	if !ok {
		return "", domain.Date{}, fmt.Errorf("%w: no assembly post in listing", ErrSourceUnavailable)
	}
	c.log.Info("selected post", "mgrSeq", seq, "date", date)

	detailURL := fmt.Sprintf("%s/spatic/assem/getInfoView.do?mgrSeq=%d", c.cfg.SpaticBase, seq)
	detail, err := c.getWithRetry(ctx, detailURL)
	if err != nil {
		return "", domain.Date{}, fmt.Errorf("%w: detail fetch: %v", ErrSourceUnavailable, err)
	}
	return string(detail), date, nil
}

// parsePosts collects listing entries from embedded script JSON first,
// then from detail-view anchors.
func (c *Client) parsePosts(doc *goquery.Document) []Post {
	var posts []Post

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if text == "" {
			return
		}
		for _, pat := range scriptListPatterns {
			m := pat.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			var arr []map[string]any
			if err := json.Unmarshal([]byte(m[1]), &arr); err != nil {
				continue
			}
			for _, it := range arr {
				posts = append(posts, Post{
					Number: firstString(it, "mgrSeq", "id", "seq"),
					Title:  firstString(it, "title", "subject"),
					Date:   firstString(it, "regDt", "regDate", "date"),
				})
			}
		}
	})

	doc.Find(`a[href*="getInfoView.do?mgrSeq="]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := mgrSeqHref.FindStringSubmatch(href)
		if m == nil {
			return
		}
		post := Post{Number: m[1], Title: normalize.Clean(a.Text())}
		// Guess the posting date from a sibling cell in the same row.
		a.Closest("tr").Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
			if _, ok := ParseDateAny(td.Text()); ok {
				post.Date = normalize.Clean(td.Text())
				return false
			}
			return true
		})
		posts = append(posts, post)
	})

	// De-duplicate by post number, first occurrence wins.
	seen := make(map[string]bool)
	var out []Post
	for _, p := range posts {
		if p.Number == "" || seen[p.Number] {
			continue
		}
		seen[p.Number] = true
		out = append(out, p)
	}
	c.log.Info("listing parsed", "posts", len(out))
	return out
}

// selectLatest filters assembly posts and picks the highest sequence
// number, falling back to today when the posting date is unreadable.
func selectLatest(posts []Post) (int, domain.Date, bool) {
	type numbered struct {
		seq  int
		post Post
	}
	var nums []numbered
	for _, p := range posts {
		if !IsEventTitle(p.Title) {
			continue
		}
		if m := digits.FindString(p.Number); m != "" {
			n, _ := strconv.Atoi(m)
			nums = append(nums, numbered{seq: n, post: p})
		}
	}
	if len(nums) == 0 {
		return 0, domain.Date{}, false
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].seq > nums[j].seq })
	top := nums[0]
	date, ok := ParseDateAny(top.post.Date)
	if !ok {
		date = Today()
	}
	return top.seq, date, true
}

var (
	numericDate = regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)
	koreanDate  = regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
)

// ParseDateAny reads "YYYY-MM-DD", "YYYY.MM.DD" or "YYYY년 M월 D일".
func ParseDateAny(s string) (domain.Date, bool) {
	s = normalize.Clean(s)
	for _, pat := range []*regexp.Regexp{numericDate, koreanDate} {
		if m := pat.FindStringSubmatch(s); m != nil {
			return domain.Date{Year: m[1], Month: pad2(m[2]), Day: pad2(m[3])}, true
		}
	}
	return domain.Date{}, false
}

// DateFromTitle extracts a date token from a bulletin title or
// filename, e.g. "오늘의 집회 250822 금" -> 2025-08-22. Only whole
// digit runs of six (YYMMDD) or eight (YYYYMMDD) digits with a
// plausible month and day are accepted, so longer numbers are never
// split mid-run.
func DateFromTitle(title string) (domain.Date, bool) {
	for _, run := range digits.FindAllString(title, -1) {
		var y, mo, d string
		switch len(run) {
		case 6:
			y, mo, d = "20"+run[:2], run[2:4], run[4:6]
		case 8:
			y, mo, d = run[:4], run[4:6], run[6:8]
		default:
			continue
		}
		if validMonthDay(mo, d) {
			return domain.Date{Year: y, Month: mo, Day: d}, true
		}
	}
	return domain.Date{}, false
}

func validMonthDay(mo, d string) bool {
	m, _ := strconv.Atoi(mo)
	n, _ := strconv.Atoi(d)
	return m >= 1 && m <= 12 && n >= 1 && n <= 31
}

// Today returns the current date in record format.
func Today() domain.Date {
	now := time.Now()
	return domain.Date{
		Year:  now.Format("2006"),
		Month: now.Format("01"),
		Day:   now.Format("02"),
	}
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	op := func() error {
		b, err := c.get(ctx, rawURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

// ReadLocal loads a document from disk, for runs against an already
// downloaded page or PDF.
func ReadLocal(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return b, nil
}

// sanitizeFilename keeps word characters, Hangul, dots and dashes.
var unsafeFilename = regexp.MustCompile(`[^\w가-힣.\-]+`)

func sanitizeFilename(name string) string {
	safe := unsafeFilename.ReplaceAllString(name, "_")
	if len(safe) > 120 {
		safe = safe[:120]
	}
	return strings.Trim(safe, "._")
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

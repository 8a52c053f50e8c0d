package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/normalize"
)

const smpaBoardPath = "/user/nd54882.do" // 서울경찰청 > 오늘의 집회

var (
	goBoardView   = regexp.MustCompile(`goBoardView\('([^']+)'\s*,\s*'([^']+)'\s*,\s*'(\d+)'\)`)
	attachOnclick = regexp.MustCompile(`attachfileDownload\('([^']+)'\s*,\s*'(\d+)'\)`)
	cdFilenameExt = regexp.MustCompile(`(?i)filename\*\s*=\s*[^']*'[^']*'([^;]+)`)
	cdFilenameQ   = regexp.MustCompile(`(?i)filename\s*=\s*"([^"]+)"`)
	cdFilename    = regexp.MustCompile(`(?i)filename\s*=\s*([^;]+)`)
)

// SMPATodayPDF locates today's bulletin post on the SMPA board,
// downloads its PDF attachment into dir, and returns the saved path
// with the date taken from the post title.
func (c *Client) SMPATodayPDF(ctx context.Context, dir string) (string, domain.Date, error) {
	listURL := c.cfg.SMPABase + smpaBoardPath
	body, err := c.getWithRetry(ctx, listURL)
	if err != nil {
		return "", domain.Date{}, fmt.Errorf("%w: board fetch: %v", ErrSourceUnavailable, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", domain.Date{}, fmt.Errorf("%w: board parse: %v", ErrSourceUnavailable, err)
	}

	boardNo, title, ok := c.findTodayPost(doc)
	if !ok {
		return "", domain.Date{}, fmt.Errorf("%w: no post for today on the board", ErrSourceUnavailable)
	}
	date, _ := DateFromTitle(title)
	c.log.Info("bulletin post found", "boardNo", boardNo, "title", title)

	viewHTML, err := c.fetchView(ctx, boardNo)
	if err != nil {
		return "", domain.Date{}, err
	}
	path, err := c.downloadAttachment(ctx, viewHTML, dir)
	if err != nil {
		return "", domain.Date{}, err
	}
	return path, date, nil
}

// findTodayPost scans board anchors for a title carrying today's
// YYMMDD token.
func (c *Client) findTodayPost(doc *goquery.Document) (boardNo, title string, ok bool) {
	today := Today()
	want := "오늘의 집회 " + today.Year[2:] + today.Month + today.Day

	doc.Find(`a[href^="javascript:goBoardView"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		t := normalize.Clean(a.Text())
		if t == "" {
			t = normalize.Clean(a.Closest("td").Text())
		}
		if !strings.Contains(t, want) {
			return true
		}
		href, _ := a.Attr("href")
		m := goBoardView.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		boardNo, title, ok = m[3], t, true
		return false
	})
	return boardNo, title, ok
}

// fetchView tries the view URL variants the board answers to.
func (c *Client) fetchView(ctx context.Context, boardNo string) ([]byte, error) {
	variants := []string{
		c.cfg.SMPABase + smpaBoardPath + "?View&boardNo=" + boardNo,
		c.cfg.SMPABase + smpaBoardPath + "?dmlType=View&boardNo=" + boardNo,
	}
	var lastErr error
	for _, u := range variants {
		body, err := c.get(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: view fetch: %v", ErrSourceUnavailable, lastErr)
}

// downloadAttachment finds the PDF attachment link on a view page and
// streams it to disk, sniffing the %PDF- magic so a mislabeled HTML
// error page is not saved.
func (c *Client) downloadAttachment(ctx context.Context, viewHTML []byte, dir string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(viewHTML))
	if err != nil {
		return "", fmt.Errorf("%w: view parse: %v", ErrSourceUnavailable, err)
	}

	var candidates []*goquery.Selection
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		oc, _ := a.Attr("onclick")
		if !strings.Contains(oc, "attachfileDownload") {
			return
		}
		if strings.Contains(strings.ToLower(a.Text()), "pdf") {
			candidates = append([]*goquery.Selection{a}, candidates...)
		} else {
			candidates = append(candidates, a)
		}
	})
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no attachment links on view page", ErrSourceUnavailable)
	}

	if err := ensureDir(dir); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	var lastErr error
	for _, a := range candidates {
		oc, _ := a.Attr("onclick")
		m := attachOnclick.FindStringSubmatch(oc)
		if m == nil {
			continue
		}
		downloadURL := c.cfg.SMPABase + m[1] + "?attachNo=" + m[2]
		path, err := c.savePDF(ctx, downloadURL, dir, normalize.Clean(a.Text()), m[2])
		if err != nil {
			lastErr = err
			continue
		}
		return path, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no parseable attachment onclick")
	}
	return "", fmt.Errorf("%w: attachment download: %v", ErrSourceUnavailable, lastErr)
}

func (c *Client) savePDF(ctx context.Context, downloadURL, dir, linkText, attachNo string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Referer", c.cfg.SMPABase+smpaBoardPath)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	first := make([]byte, 8)
	n, _ := io.ReadFull(resp.Body, first)
	first = first[:n]
	if !isPDF(resp.Header.Get("Content-Type"), first) {
		return "", fmt.Errorf("attachment is not a PDF")
	}

	name := filenameFromCD(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = linkText
	}
	if name == "" {
		name = attachNo
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
	}
	path := filepath.Join(dir, sanitizeFilename(name))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(first); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

func isPDF(contentType string, first []byte) bool {
	if bytes.HasPrefix(first, []byte("%PDF-")) {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.Contains(mt, "pdf")
}

// filenameFromCD parses a Content-Disposition header, preferring the
// RFC 5987 filename* form.
func filenameFromCD(cd string) string {
	if cd == "" {
		return ""
	}
	if m := cdFilenameExt.FindStringSubmatch(cd); m != nil {
		if decoded, err := url.QueryUnescape(m[1]); err == nil {
			return decoded
		}
		return m[1]
	}
	if m := cdFilenameQ.FindStringSubmatch(cd); m != nil {
		return m[1]
	}
	if m := cdFilename.FindStringSubmatch(cd); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// PDFText extracts the plain text stream of a PDF file.
func PDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

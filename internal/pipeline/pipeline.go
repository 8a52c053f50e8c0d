// Package pipeline wires the fetchers, extractors, geocoder and store
// into the two end-to-end crawl paths: the notice-table HTML source and
// the daily bulletin PDF source. Both paths converge on the same event
// records, soft-merged into the store and exported as CSV.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/extract"
	"github.com/seoulwatch/jiphoe/internal/fetcher"
	"github.com/seoulwatch/jiphoe/internal/geocode"
	"github.com/seoulwatch/jiphoe/internal/store"

	"github.com/PuerkitoBio/goquery"
)

// Options tunes a pipeline run.
type Options struct {
	DataDir string
	// MinCommon is the place-overlap threshold for merging a new record
	// into an existing one with the same time window.
	MinCommon int
	// DistrictBox and DistrictKeywords select records for the filtered
	// secondary export. A record qualifies when any coordinate falls in
	// the box or any place or remark contains a keyword.
	DistrictBox      geocode.BBox
	DistrictKeywords []string
}

// Summary reports what one run did.
type Summary struct {
	Date          domain.Date
	Rows          int
	Events        int
	Added         int
	Updated       int
	GeocodeMisses int
	CSVPath       string
	FilteredPath  string
}

// Pipeline owns the collaborators for a crawl.
type Pipeline struct {
	fetch *fetcher.Client
	geo   *geocode.Geocoder
	store *store.Store
	opt   Options
	log   *slog.Logger
}

// New builds a pipeline. Geocoder may be nil, in which case records are
// stored without coordinates.
func New(fetch *fetcher.Client, geo *geocode.Geocoder, st *store.Store, opt Options, log *slog.Logger) *Pipeline {
	if opt.MinCommon <= 0 {
		opt.MinCommon = 2
	}
	if opt.DataDir == "" {
		opt.DataDir = "data"
	}
	var zero geocode.BBox
	if opt.DistrictBox == zero {
		opt.DistrictBox = geocode.JongnoBox()
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{fetch: fetch, geo: geo, store: st, opt: opt, log: log}
}

// RunSpatic crawls the latest notice-table post and processes it.
func (p *Pipeline) RunSpatic(ctx context.Context) (*Summary, error) {
	html, date, err := p.fetch.SpaticLatestDetail(ctx)
	if err != nil {
		return nil, err
	}
	events, rows, err := EventsFromHTML(html)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, date, events, rows)
}

// RunSMPA downloads today's bulletin PDF and processes it. When
// localPDF is non-empty the download is skipped and the file is read
// directly; the date is then taken from the filename when possible,
// else today.
func (p *Pipeline) RunSMPA(ctx context.Context, localPDF string) (*Summary, error) {
	path := localPDF
	date := fetcher.Today()
	if path == "" {
		var err error
		path, date, err = p.fetch.SMPATodayPDF(ctx, filepath.Join(p.opt.DataDir, "pdf"))
		if err != nil {
			return nil, err
		}
	} else if d, ok := fetcher.DateFromTitle(filepath.Base(path)); ok {
		date = d
	}
	text, err := fetcher.PDFText(path)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	rows := extract.RowsFromText(text)
	events := extract.Group(rows)
	return p.process(ctx, date, events, len(rows))
}

// EventsFromHTML locates the schedule region in a detail page and
// extracts grouped events from it. A page without a recognizable table
// falls back to free-text extraction over the region text.
func EventsFromHTML(html string) ([]domain.Event, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse detail page: %w", err)
	}
	region, text := extract.LocateHTML(doc)

	var rows []domain.RawRow
	if region != nil {
		cols := extract.MapColumns(region)
		rows = extract.RowsFromRegion(region, cols)
	} else {
		rows = extract.RowsFromText(text)
	}
	return extract.Group(rows), len(rows), nil
}

func (p *Pipeline) process(ctx context.Context, date domain.Date, events []domain.Event, rows int) (*Summary, error) {
	sum := &Summary{Date: date, Rows: rows, Events: len(events)}
	if len(events) == 0 {
		p.log.Warn("no events extracted", "date", date)
		return sum, nil
	}

	records := make([]domain.Record, 0, len(events))
	for _, ev := range events {
		if p.geo != nil {
			ev = p.geo.ResolveEvent(ctx, ev)
		}
		for i := range ev.Places {
			if i >= len(ev.Coords) || ev.Coords[i].Lat == nil {
				sum.GeocodeMisses++
			}
		}
		records = append(records, domain.NewRecord(uuid.New().String(), date, ev))
	}

	added, updated, err := p.store.UpsertSoftMerge(records, p.opt.MinCommon)
	if err != nil {
		return nil, fmt.Errorf("persist records: %w", err)
	}
	sum.Added, sum.Updated = added, updated

	if err := p.export(date, sum); err != nil {
		return nil, err
	}
	p.log.Info("run complete",
		"date", date, "rows", sum.Rows, "events", sum.Events,
		"added", sum.Added, "updated", sum.Updated, "misses", sum.GeocodeMisses)
	return sum, nil
}

// export writes the per-date CSV plus the district-filtered variant.
func (p *Pipeline) export(date domain.Date, sum *Summary) error {
	records, err := p.store.ByDate(date)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	store.SortRecords(records)

	stem := fmt.Sprintf("%s%s%s", date.Year, date.Month, date.Day)
	sum.CSVPath = filepath.Join(p.opt.DataDir, "집회정보_"+stem+".csv")
	if err := store.WriteCSV(sum.CSVPath, records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	filtered := p.DistrictFilter(records)
	sum.FilteredPath = filepath.Join(p.opt.DataDir, "집회정보_종로구_"+stem+".csv")
	if err := store.WriteCSV(sum.FilteredPath, filtered); err != nil {
		return fmt.Errorf("write filtered csv: %w", err)
	}
	return nil
}

// DistrictFilter keeps records touching the configured district, by
// coordinate when available and by keyword otherwise.
func (p *Pipeline) DistrictFilter(records []domain.Record) []domain.Record {
	var out []domain.Record
	for _, r := range records {
		if p.inDistrict(r) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Pipeline) inDistrict(r domain.Record) bool {
	lats := domain.JSONFloatList(r.Lats)
	lons := domain.JSONFloatList(r.Lons)
	for i := range lats {
		if i < len(lons) && lats[i] != nil && lons[i] != nil &&
			p.opt.DistrictBox.Contains(*lats[i], *lons[i]) {
			return true
		}
	}
	text := r.Places + " " + r.Remark
	for _, kw := range p.opt.DistrictKeywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

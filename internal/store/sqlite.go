// Package store persists geocoded event records. Records are keyed by
// (year, month, day, start_time, end_time) and merged on append, not
// overwritten.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/extract"
)

//go:embed schema.sql
var schema string

// Store handles database operations.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const recordColumns = "id, year, month, day, start_time, end_time, places, headcount, lats, lons, remark"

// LoadAll returns every record sorted by date and start/end minutes.
func (s *Store) LoadAll() ([]domain.Record, error) {
	rows, err := s.db.Query("SELECT " + recordColumns + " FROM events")
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return records, nil
}

// ByDate returns the records for one calendar date, sorted by time.
func (s *Store) ByDate(d domain.Date) ([]domain.Record, error) {
	rows, err := s.db.Query(
		"SELECT "+recordColumns+" FROM events WHERE year = ? AND month = ? AND day = ?",
		d.Year, d.Month, d.Day,
	)
	if err != nil {
		return nil, fmt.Errorf("load events by date: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	SortRecords(records)
	return records, nil
}

// LatestDate returns the most recent date holding any record.
func (s *Store) LatestDate() (domain.Date, bool, error) {
	var d domain.Date
	err := s.db.QueryRow(
		"SELECT year, month, day FROM events ORDER BY year DESC, month DESC, day DESC LIMIT 1",
	).Scan(&d.Year, &d.Month, &d.Day)
	if err == sql.ErrNoRows {
		return domain.Date{}, false, nil
	}
	if err != nil {
		return domain.Date{}, false, fmt.Errorf("latest date: %w", err)
	}
	return d, true, nil
}

// UpsertTimeOnly appends records whose time key is not present yet and
// skips the rest. Existing rows are never modified.
func (s *Store) UpsertTimeOnly(records []domain.Record) (added, skipped int, err error) {
	for _, r := range records {
		existing, err := s.byTimeKey(r)
		if err != nil {
			return added, skipped, err
		}
		if len(existing) > 0 {
			skipped++
			continue
		}
		if err := s.insert(r); err != nil {
			return added, skipped, err
		}
		added++
	}
	return added, skipped, nil
}

// UpsertSoftMerge appends records, merging into an existing row when
// the time key matches and the canonicalized place sets share at least
// minCommon tokens. On a merge, place and coordinate lists are unioned
// with existing non-null coordinates winning.
func (s *Store) UpsertSoftMerge(records []domain.Record, minCommon int) (added, updated int, err error) {
	if minCommon <= 0 {
		minCommon = 2
	}
	for _, r := range records {
		existing, err := s.byTimeKey(r)
		if err != nil {
			return added, updated, err
		}

		merged := false
		newSet := canonPlaceSet(r.PlaceList())
		for _, er := range existing {
			if overlapCount(canonPlaceSet(er.PlaceList()), newSet) >= minCommon {
				combined := MergeRecords(er, r)
				if err := s.update(combined); err != nil {
					return added, updated, err
				}
				updated++
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		if err := s.insert(r); err != nil {
			return added, updated, err
		}
		added++
	}
	return added, updated, nil
}

func (s *Store) byTimeKey(r domain.Record) ([]domain.Record, error) {
	rows, err := s.db.Query(
		"SELECT "+recordColumns+" FROM events WHERE year = ? AND month = ? AND day = ? AND start_time = ? AND end_time = ?",
		r.Year, r.Month, r.Day, r.StartTime, r.EndTime,
	)
	if err != nil {
		return nil, fmt.Errorf("load by time key: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) insert(r domain.Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	_, err := s.db.Exec(
		"INSERT INTO events ("+recordColumns+", created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Year, r.Month, r.Day, r.StartTime, r.EndTime,
		r.Places, r.Headcount, r.Lats, r.Lons, r.Remark, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) update(r domain.Record) error {
	_, err := s.db.Exec(
		"UPDATE events SET places = ?, headcount = ?, lats = ?, lons = ?, remark = ? WHERE id = ?",
		r.Places, r.Headcount, r.Lats, r.Lons, r.Remark, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	var records []domain.Record
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.ID, &r.Year, &r.Month, &r.Day, &r.StartTime, &r.EndTime,
			&r.Places, &r.Headcount, &r.Lats, &r.Lons, &r.Remark); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SortRecords orders records by (year, month, day, start minutes, end
// minutes); open-ended times sort last within their date.
func SortRecords(records []domain.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		am, bm := extract.TimeToMinutes(a.StartTime), extract.TimeToMinutes(b.StartTime)
		if am != bm {
			return am < bm
		}
		return extract.TimeToMinutes(a.EndTime) < extract.TimeToMinutes(b.EndTime)
	})
}

// Package api serves the chat-query endpoint. The response shape
// follows the Kakao open-builder skill format so the bot platform can
// render it directly.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/store"
)

// Server handles HTTP requests for assembly-schedule queries.
type Server struct {
	store *store.Store
	addr  string
	log   *slog.Logger
}

// New creates a new API server.
func New(s *store.Store, addr string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{store: s, addr: addr, log: log}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	s.log.Info("starting server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// Handler builds the route mux; split out so tests can drive it with
// httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /today-protests", s.todayProtests)
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /{$}", s.index)
	return withCORS(mux)
}

// withCORS adds CORS headers for the bot platform callback.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":  "jiphoe",
		"endpoint": "POST /today-protests",
	})
}

// todayProtests answers with today's schedule, falling back to the most
// recent stored date when today has no records yet.
func (s *Server) todayProtests(w http.ResponseWriter, r *http.Request) {
	date := today()
	records, err := s.store.ByDate(date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(records) == 0 {
		latest, ok, err := s.store.LatestDate()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if ok {
			date = latest
			if records, err = s.store.ByDate(date); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
	}
	store.SortRecords(records)
	writeJSON(w, http.StatusOK, kakaoText(FormatSchedule(date, records)))
}

// FormatSchedule renders the daily schedule as chat text, one block per
// record ordered by start time.
func FormatSchedule(d domain.Date, records []domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s년 %s월 %s일 집회 일정\n", d.Year, d.Month, d.Day)
	if len(records) == 0 {
		b.WriteString("\n등록된 집회 정보가 없습니다.")
		return b.String()
	}
	for _, r := range records {
		b.WriteString("\n")
		window := r.StartTime
		if r.EndTime != "" {
			window += " ~ " + r.EndTime
		}
		fmt.Fprintf(&b, "⏰ %s\n", window)
		if places := r.PlaceList(); len(places) > 0 {
			fmt.Fprintf(&b, "📍 %s\n", strings.Join(places, " → "))
		}
		if r.Headcount != "" {
			fmt.Fprintf(&b, "👥 %s\n", r.Headcount)
		}
		if r.Remark != "" {
			fmt.Fprintf(&b, "📝 %s\n", r.Remark)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func today() domain.Date {
	now := time.Now()
	return domain.Date{
		Year:  now.Format("2006"),
		Month: now.Format("01"),
		Day:   now.Format("02"),
	}
}

// kakaoText wraps text in the open-builder simpleText skill response.
func kakaoText(text string) map[string]any {
	return map[string]any{
		"version": "2.0",
		"template": map[string]any{
			"outputs": []any{
				map[string]any{
					"simpleText": map[string]any{"text": text},
				},
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package geocode

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/seoulwatch/jiphoe/internal/domain"
	"github.com/seoulwatch/jiphoe/internal/normalize"
)

// Mode selects the bounding-box policy.
type Mode string

const (
	// ModeBoost prefers in-box results but keeps out-of-box ones as a
	// last resort.
	ModeBoost Mode = "boost"
	// ModeStrict disqualifies any result outside the target boxes.
	ModeStrict Mode = "strict"
)

// Weights are the scoring weights for place-search results. The
// original pipeline tuned these by trial and error; treat them as
// tunables, not constants.
type Weights struct {
	City          int `yaml:"city"`
	District      int `yaml:"district"`
	TitleExact    int `yaml:"title_exact"`
	TitleContains int `yaml:"title_contains"`
	ContextTerm   int `yaml:"context_term"`
	Landmark      int `yaml:"landmark"`
	InBox         int `yaml:"in_box"`
	OutBoxPenalty int `yaml:"out_box_penalty"`
}

// DefaultWeights returns the tuned defaults.
func DefaultWeights() Weights {
	return Weights{
		City:          10,
		District:      4,
		TitleExact:    8,
		TitleContains: 2,
		ContextTerm:   2,
		Landmark:      3,
		InBox:         5,
		OutBoxPenalty: -3,
	}
}

// Config tunes the geocoder strategy.
type Config struct {
	Mode         Mode
	Weights      Weights
	Boxes        BBoxSet
	Pages        int
	TopN         int
	AddressTries int
	City         string
	Landmarks    []string
	Candidates   CandidateOptions
}

// DefaultConfig returns the geocoder defaults for the Jongno/Jung-gu
// target area.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeBoost,
		Weights:      DefaultWeights(),
		Boxes:        DefaultBoxes(),
		Pages:        2,
		TopN:         20,
		AddressTries: 5,
		City:         "서울",
		Landmarks: []string{
			"광화문", "세종문화회관", "정부서울청사", "경복궁", "시청", "숭례문",
		},
		Candidates: DefaultCandidateOptions(),
	}
}

// api is the slice of the VWorld client the geocoder needs; tests
// substitute a call-counting stub.
type api interface {
	SearchPlace(ctx context.Context, query string, page int) ([]Item, error)
	AddressCoord(ctx context.Context, addr, addrType string) (*Item, error)
}

// Geocoder resolves place tokens to coordinates. It owns a run-scoped
// cache so a query string issued once is never reissued, hits and
// misses alike.
type Geocoder struct {
	client api
	cfg    Config
	cache  *lru.Cache[string, *domain.GeocodeResult]
	log    *slog.Logger
}

const cacheSize = 4096

// New creates a Geocoder around a VWorld client.
func New(client *Client, cfg Config, log *slog.Logger) *Geocoder {
	return newWithAPI(client, cfg, log)
}

func newWithAPI(client api, cfg Config, log *slog.Logger) *Geocoder {
	if cfg.Pages <= 0 {
		cfg.Pages = 2
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 20
	}
	if cfg.AddressTries <= 0 {
		cfg.AddressTries = 5
	}
	if cfg.City == "" {
		cfg.City = "서울"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeBoost
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache, _ := lru.New[string, *domain.GeocodeResult](cacheSize)
	return &Geocoder{client: client, cfg: cfg, cache: cache, log: log}
}

// Resolve geocodes one place token. The remark supplies the district
// hint and contextual landmark terms. Returns nil when every strategy
// exhausts without a qualifying coordinate; that is an expected
// outcome, not an error.
func (g *Geocoder) Resolve(ctx context.Context, place, remark string) *domain.GeocodeResult {
	candidates := BuildCandidates(place, remark, g.cfg.Candidates)
	if len(candidates) == 0 {
		return nil
	}
	gu := DistrictHint(remark)
	ctxTerms := ContextTerms(remark)
	core, _ := splitQualifiers(cleanBase(place))

	// Place search pass: first success wins, later candidates are
	// never speculatively issued.
	for _, q := range candidates {
		if res, hit := g.cached("place:" + q); hit {
			if res != nil {
				return res
			}
			continue
		}
		res := g.searchScored(ctx, q, core, gu, ctxTerms)
		g.cache.Add("place:"+q, res)
		if res != nil {
			return res
		}
	}

	// Address geocoding fallback over a bounded candidate subset.
	tries := candidates
	if len(tries) > g.cfg.AddressTries {
		tries = tries[:g.cfg.AddressTries]
	}
	for _, q := range tries {
		addrs := []string{q}
		if gu != "" && !strings.HasPrefix(q, g.cfg.City) {
			addrs = append([]string{g.cfg.City + "특별시 " + gu + " " + q}, addrs...)
		}
		for _, addr := range addrs {
			for _, addrType := range []string{"road", "parcel"} {
				key := addrType + ":" + addr
				if res, hit := g.cached(key); hit {
					if res != nil {
						return res
					}
					continue
				}
				res := g.addressLookup(ctx, addr, addrType)
				g.cache.Add(key, res)
				if res != nil {
					return res
				}
			}
		}
	}

	// Context-only last resort: bare landmark terms from the remark.
	for _, tok := range ctxTerms {
		queries := []string{g.cfg.City + " " + tok}
		if gu != "" {
			queries = append([]string{g.cfg.City + " " + gu + " " + tok}, queries...)
		}
		for _, q := range queries {
			if res, hit := g.cached("place:" + q); hit {
				if res != nil {
					return res
				}
				continue
			}
			res := g.searchScored(ctx, q, tok, gu, nil)
			g.cache.Add("place:"+q, res)
			if res != nil {
				return res
			}
		}
	}

	return nil
}

// ResolveEvent returns a copy of the event with one coordinate per
// place, nil entries for unresolved ones.
func (g *Geocoder) ResolveEvent(ctx context.Context, ev domain.Event) domain.Event {
	remark := strings.Join(ev.Remarks, " ")
	coords := make([]domain.Coord, len(ev.Places))
	for i, place := range ev.Places {
		if res := g.Resolve(ctx, place, remark); res != nil {
			lat, lon := res.Lat, res.Lon
			coords[i] = domain.Coord{Lat: &lat, Lon: &lon}
		}
	}
	return ev.WithCoords(coords)
}

func (g *Geocoder) cached(key string) (*domain.GeocodeResult, bool) {
	return g.cache.Get(key)
}

type scored struct {
	item  Item
	score int
}

func (g *Geocoder) searchScored(ctx context.Context, query, core, gu string, ctxTerms []string) *domain.GeocodeResult {
	var items []Item
	for page := 1; page <= g.cfg.Pages; page++ {
		got, err := g.client.SearchPlace(ctx, query, page)
		if err != nil {
			g.log.Debug("place search failed", "query", query, "err", err)
			break
		}
		if len(got) == 0 {
			break
		}
		items = append(items, got...)
	}
	if len(items) == 0 {
		return nil
	}

	coreKey := normalize.NoSpace(core)
	var ranked []scored
	for _, it := range items {
		inBox := g.cfg.Boxes.InTarget(it.Lat, it.Lon)
		if g.cfg.Mode == ModeStrict && !inBox {
			continue
		}

		s := 0
		if strings.Contains(it.Address, g.cfg.City) || strings.Contains(it.Address, "Seoul") {
			s += g.cfg.Weights.City
		}
		if gu != "" && strings.Contains(it.Address, gu) {
			s += g.cfg.Weights.District
		}
		titleKey := normalize.NoSpace(it.Title)
		if coreKey != "" {
			if titleKey == coreKey {
				s += g.cfg.Weights.TitleExact
			} else if strings.Contains(titleKey, coreKey) {
				s += g.cfg.Weights.TitleContains
			}
		}
		for _, tok := range ctxTerms {
			k := normalize.NoSpace(tok)
			if strings.Contains(titleKey, k) || strings.Contains(normalize.NoSpace(it.Address), k) {
				s += g.cfg.Weights.ContextTerm
			}
		}
		for _, lm := range g.cfg.Landmarks {
			if strings.Contains(it.Title, lm) || strings.Contains(it.Address, lm) {
				s += g.cfg.Weights.Landmark
				break
			}
		}
		if inBox {
			s += g.cfg.Weights.InBox
		} else {
			s += g.cfg.Weights.OutBoxPenalty
		}
		ranked = append(ranked, scored{item: it, score: s})
	}
	if len(ranked) == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	top := ranked
	if len(top) > g.cfg.TopN {
		top = top[:g.cfg.TopN]
	}
	for _, c := range top {
		if g.cfg.Boxes.InTarget(c.item.Lat, c.item.Lon) {
			return &domain.GeocodeResult{Lat: c.item.Lat, Lon: c.item.Lon, Query: query}
		}
	}
	best := ranked[0]
	return &domain.GeocodeResult{Lat: best.item.Lat, Lon: best.item.Lon, Query: query}
}

func (g *Geocoder) addressLookup(ctx context.Context, addr, addrType string) *domain.GeocodeResult {
	it, err := g.client.AddressCoord(ctx, addr, addrType)
	if err != nil {
		g.log.Debug("address lookup failed", "addr", addr, "type", addrType, "err", err)
		return nil
	}
	if it == nil {
		return nil
	}
	inBox := g.cfg.Boxes.InTarget(it.Lat, it.Lon)
	if g.cfg.Mode == ModeStrict && !inBox {
		return nil
	}
	if !inBox && !g.cfg.Boxes.Outer.Contains(it.Lat, it.Lon) {
		return nil
	}
	return &domain.GeocodeResult{Lat: it.Lat, Lon: it.Lon, Query: addrType + ":" + addr}
}

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ClientConfig configures the VWorld API client. The key is injected
// here rather than read from a package-level default.
type ClientConfig struct {
	Key          string
	SearchURL    string
	AddressURL   string
	Timeout      time.Duration
	RateInterval time.Duration
	PageSize     int
}

// DefaultClientConfig returns the public endpoints with conservative
// timeouts. The key must still be supplied.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		SearchURL:    "https://api.vworld.kr/req/search",
		AddressURL:   "https://api.vworld.kr/req/address",
		Timeout:      6 * time.Second,
		RateInterval: 150 * time.Millisecond,
		PageSize:     10,
	}
}

// Item is one place-search result.
type Item struct {
	Title   string
	Address string
	Lat     float64
	Lon     float64
}

// ErrUnavailable wraps transport-level failures; callers treat it as a
// failed candidate, never a fatal error.
var ErrUnavailable = errors.New("vworld: unavailable")

// Client talks to the VWorld search and address endpoints. Calls are
// rate limited and routed through a circuit breaker so a dead API
// short-circuits the remaining candidates instead of timing out one by
// one.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

// NewClient creates a VWorld client. A nil logger discards output.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.SearchURL == "" || cfg.AddressURL == "" {
		def := DefaultClientConfig()
		if cfg.SearchURL == "" {
			cfg.SearchURL = def.SearchURL
		}
		if cfg.AddressURL == "" {
			cfg.AddressURL = def.AddressURL
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 6 * time.Second
	}
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = 150 * time.Millisecond
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateInterval), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "vworld",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		log: log,
	}
}

type searchResponse struct {
	Response struct {
		Status string `json:"status"`
		Result struct {
			Items []searchItem `json:"items"`
		} `json:"result"`
	} `json:"response"`
}

type searchItem struct {
	Title string `json:"title"`
	Point struct {
		X json.Number `json:"x"`
		Y json.Number `json:"y"`
	} `json:"point"`
	Address json.RawMessage `json:"address"`
}

// SearchPlace runs one page of the place search. A NOT_FOUND status or
// an empty page yields an empty slice and no error.
func (c *Client) SearchPlace(ctx context.Context, query string, page int) ([]Item, error) {
	params := url.Values{
		"service": {"search"},
		"request": {"search"},
		"version": {"2.0"},
		"crs":     {"EPSG:4326"},
		"format":  {"json"},
		"type":    {"place"},
		"size":    {fmt.Sprint(c.cfg.PageSize)},
		"page":    {fmt.Sprint(page)},
		"query":   {query},
		"key":     {c.cfg.Key},
	}

	body, err := c.get(ctx, c.cfg.SearchURL, params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("search %q: decode: %w", query, err)
	}

	var items []Item
	for _, it := range resp.Response.Result.Items {
		lon, err1 := it.Point.X.Float64()
		lat, err2 := it.Point.Y.Float64()
		if err1 != nil || err2 != nil {
			continue
		}
		items = append(items, Item{
			Title:   it.Title,
			Address: decodeAddress(it.Address),
			Lat:     lat,
			Lon:     lon,
		})
	}
	return items, nil
}

type addressResponse struct {
	Response struct {
		Status string `json:"status"`
		Result struct {
			Point struct {
				X json.Number `json:"x"`
				Y json.Number `json:"y"`
			} `json:"point"`
		} `json:"result"`
	} `json:"response"`
}

// AddressCoord geocodes an address string against the road or parcel
// geocoder. Returns nil when the address does not resolve.
func (c *Client) AddressCoord(ctx context.Context, addr, addrType string) (*Item, error) {
	params := url.Values{
		"service": {"address"},
		"request": {"getCoord"},
		"version": {"2.0"},
		"crs":     {"EPSG:4326"},
		"format":  {"json"},
		"type":    {addrType},
		"address": {addr},
		"key":     {c.cfg.Key},
	}

	body, err := c.get(ctx, c.cfg.AddressURL, params)
	if err != nil {
		return nil, err
	}

	var resp addressResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("address %q: decode: %w", addr, err)
	}
	if resp.Response.Status != "OK" {
		return nil, nil
	}
	lon, err1 := resp.Response.Result.Point.X.Float64()
	lat, err2 := resp.Response.Result.Point.Y.Float64()
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &Item{Address: addr, Lat: lat, Lon: lon}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return result.([]byte), nil
}

// decodeAddress tolerates both address shapes the API serves: an
// object with road/parcel fields, or a bare string.
func decodeAddress(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Road   string `json:"road"`
		Parcel string `json:"parcel"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Road != "" {
			return obj.Road
		}
		return obj.Parcel
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// Package config assembles runtime configuration from defaults, an
// optional YAML file and JIPHOE_-prefixed environment variables, in
// that order. The VWorld API key is never compiled in; it must come
// from the file, the environment or a flag.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seoulwatch/jiphoe/internal/fetcher"
	"github.com/seoulwatch/jiphoe/internal/geocode"
)

// Config holds all settings for one run.
type Config struct {
	DataDir string       `yaml:"data_dir"`
	Server  ServerConfig `yaml:"server"`
	Sources SourceConfig `yaml:"sources"`
	VWorld  VWorldConfig `yaml:"vworld"`
	Geocode GeoConfig    `yaml:"geocode"`
	Merge   MergeConfig  `yaml:"merge"`
	Filter  FilterConfig `yaml:"filter"`
}

// ServerConfig configures the query endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SourceConfig holds the source site bases.
type SourceConfig struct {
	SpaticBase string `yaml:"spatic_base"`
	SMPABase   string `yaml:"smpa_base"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// VWorldConfig configures the geocoding API client.
type VWorldConfig struct {
	Key        string `yaml:"key"`
	SearchURL  string `yaml:"search_url"`
	AddressURL string `yaml:"address_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	RateMS     int    `yaml:"rate_ms"`
	PageSize   int    `yaml:"page_size"`
	Pages      int    `yaml:"pages"`
}

// GeoConfig tunes geocoder scoring and candidate generation. The
// weights were tuned by trial and error in production; override them
// per deployment rather than editing code.
type GeoConfig struct {
	Mode         string          `yaml:"mode"` // boost | strict
	TopN         int             `yaml:"top_n"`
	AddressTries int             `yaml:"address_tries"`
	CandidateCap int             `yaml:"candidate_cap"`
	PrefixTop    int             `yaml:"prefix_top"`
	Weights      geocode.Weights `yaml:"weights"`
	Boxes        geocode.BBoxSet `yaml:"boxes"`
	Landmarks    []string        `yaml:"landmarks"`
}

// MergeConfig tunes persistence-time soft merging.
type MergeConfig struct {
	MinCommon int `yaml:"min_common"`
}

// FilterConfig drives the district-filtered secondary output.
type FilterConfig struct {
	Keywords []string `yaml:"keywords"`
}

// Default returns the built-in configuration for the Jongno/Jung-gu
// target area.
func Default() *Config {
	geo := geocode.DefaultConfig()
	cand := geocode.DefaultCandidateOptions()
	return &Config{
		DataDir: "data",
		Server:  ServerConfig{Addr: ":8080"},
		Sources: SourceConfig{TimeoutSec: 15},
		VWorld: VWorldConfig{
			TimeoutSec: 6,
			RateMS:     150,
			PageSize:   10,
			Pages:      geo.Pages,
		},
		Geocode: GeoConfig{
			Mode:         string(geo.Mode),
			TopN:         geo.TopN,
			AddressTries: geo.AddressTries,
			CandidateCap: cand.Cap,
			PrefixTop:    cand.PrefixTop,
			Weights:      geo.Weights,
			Boxes:        geo.Boxes,
			Landmarks:    geo.Landmarks,
		},
		Merge: MergeConfig{MinCommon: 2},
		Filter: FilterConfig{
			Keywords: []string{
				"종로", "종로구", "종로구청",
				"광화문", "광화문광장", "세종문화회관", "정부서울청사", "경복궁",
				"삼청동", "청운동", "부암동", "인사동", "익선동", "계동", "와룡동",
				"사직로", "율곡로", "자하문로",
				"경복궁역", "광화문역", "안국역", "종각역", "종로3가역", "종로5가역",
				"흥인지문",
			},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file when
// path is non-empty, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.VWorld.Key, "JIPHOE_VWORLD_KEY")
	setString(&c.DataDir, "JIPHOE_DATA_DIR")
	setString(&c.Server.Addr, "JIPHOE_ADDR")
	setString(&c.Sources.SpaticBase, "JIPHOE_SPATIC_BASE")
	setString(&c.Sources.SMPABase, "JIPHOE_SMPA_BASE")
	setString(&c.Geocode.Mode, "JIPHOE_BBOX_MODE")
	setInt(&c.Merge.MinCommon, "JIPHOE_MERGE_MIN_COMMON")
	setInt(&c.VWorld.RateMS, "JIPHOE_VWORLD_RATE_MS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// FetcherConfig maps to the fetcher's own config type.
func (c *Config) FetcherConfig() fetcher.Config {
	return fetcher.Config{
		SpaticBase: c.Sources.SpaticBase,
		SMPABase:   c.Sources.SMPABase,
		Timeout:    time.Duration(c.Sources.TimeoutSec) * time.Second,
	}
}

// ClientConfig maps to the VWorld client config.
func (c *Config) ClientConfig() geocode.ClientConfig {
	return geocode.ClientConfig{
		Key:          c.VWorld.Key,
		SearchURL:    c.VWorld.SearchURL,
		AddressURL:   c.VWorld.AddressURL,
		Timeout:      time.Duration(c.VWorld.TimeoutSec) * time.Second,
		RateInterval: time.Duration(c.VWorld.RateMS) * time.Millisecond,
		PageSize:     c.VWorld.PageSize,
	}
}

// GeocoderConfig maps to the geocoder strategy config.
func (c *Config) GeocoderConfig() geocode.Config {
	cand := geocode.DefaultCandidateOptions()
	cand.Cap = c.Geocode.CandidateCap
	cand.PrefixTop = c.Geocode.PrefixTop
	return geocode.Config{
		Mode:         geocode.Mode(c.Geocode.Mode),
		Weights:      c.Geocode.Weights,
		Boxes:        c.Geocode.Boxes,
		Pages:        c.VWorld.Pages,
		TopN:         c.Geocode.TopN,
		AddressTries: c.Geocode.AddressTries,
		Landmarks:    c.Geocode.Landmarks,
		Candidates:   cand,
	}
}

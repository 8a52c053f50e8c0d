package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Merge.MinCommon)
	assert.Equal(t, "boost", cfg.Geocode.Mode)
	assert.Empty(t, cfg.VWorld.Key, "the API key must never have a built-in value")
	assert.Contains(t, cfg.Filter.Keywords, "광화문")
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/jiphoe
server:
  addr: ":9999"
vworld:
  key: file-key
geocode:
  mode: strict
  weights:
    in_box: 7
merge:
  min_common: 3
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/jiphoe", cfg.DataDir)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "file-key", cfg.VWorld.Key)
	assert.Equal(t, "strict", cfg.Geocode.Mode)
	assert.Equal(t, 7, cfg.Geocode.Weights.InBox)
	assert.Equal(t, 3, cfg.Merge.MinCommon)
	// untouched fields keep their defaults
	assert.Equal(t, 10, cfg.VWorld.PageSize)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vworld:\n  key: file-key\n"), 0o644))

	t.Setenv("JIPHOE_VWORLD_KEY", "env-key")
	t.Setenv("JIPHOE_BBOX_MODE", "strict")
	t.Setenv("JIPHOE_MERGE_MIN_COMMON", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.VWorld.Key)
	assert.Equal(t, "strict", cfg.Geocode.Mode)
	assert.Equal(t, 4, cfg.Merge.MinCommon)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
}

func TestGeocoderConfigMapping(t *testing.T) {
	cfg := Default()
	cfg.Geocode.Mode = "strict"
	cfg.Geocode.CandidateCap = 10
	cfg.VWorld.Pages = 3

	gc := cfg.GeocoderConfig()
	assert.Equal(t, "strict", string(gc.Mode))
	assert.Equal(t, 10, gc.Candidates.Cap)
	assert.Equal(t, 3, gc.Pages)
}

package ratingconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, raw, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ShippedFileMatchesDefaults(t *testing.T) {
	cfg, raw, err := Load(filepath.Join("..", "..", "config", "ratings", "default.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, Default(), cfg)

	h1, err := Hash(cfg)
	require.NoError(t, err)
	h2, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	yaml := `
meta:
  config_id: rs_heavy
composite:
  eps: 0.2
  rs: 0.5
  smr: 0.1
  ad: 0.1
  industry: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rs_heavy", cfg.Meta.ConfigID)
	assert.Equal(t, 0.5, cfg.Composite.RS)
	// untouched sections keep defaults
	assert.Equal(t, Default().SMR, cfg.SMR)
	assert.Equal(t, 365, cfg.High52W.WindowDays)

	h, err := Hash(cfg)
	require.NoError(t, err)
	def, err := Hash(Default())
	require.NoError(t, err)
	assert.NotEqual(t, def, h)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("composite:\n  eps: 0.3\n  momentum: 0.1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
	}{
		{"missing config id", func(c *Config) { c.Meta.ConfigID = "" }, "meta.config_id"},
		{"composite sum", func(c *Config) { c.Composite.RS = 0.4 }, "composite"},
		{"negative weight", func(c *Config) { c.Composite.AD = -0.1; c.Composite.RS = 0.5 }, "composite"},
		{"eps sum", func(c *Config) { c.EPS.Stability = 0 }, "eps"},
		{"growth cap", func(c *Config) { c.EPS.GrowthCap = 0 }, "eps.growth_cap"},
		{"annual cap", func(c *Config) { c.EPS.AnnualCap = -1 }, "eps.annual_cap"},
		{"smr sum", func(c *Config) { c.SMR.ROE = 0.5 }, "smr"},
		{"smr thresholds order", func(c *Config) { c.SMR.Thresholds.B = 85 }, "smr.thresholds"},
		{"ad thresholds range", func(c *Config) { c.AD.Thresholds.A = 120 }, "ad.thresholds"},
		{"ad score range", func(c *Config) { c.AD.Scores.A = 101 }, "ad.scores"},
		{"ad default range", func(c *Config) { c.AD.DefaultScore = -5 }, "ad.scores"},
		{"window", func(c *Config) { c.High52W.WindowDays = 0 }, "high_52w.window_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestThresholdsLetter(t *testing.T) {
	th := Default().SMR.Thresholds
	tests := []struct {
		v    float64
		want string
	}{
		{99, "A"}, {80, "A"}, {79.9, "B"}, {60, "B"}, {40, "C"}, {20, "D"}, {19, "E"}, {0, "E"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Letter(tt.v), "value %v", tt.v)
	}
}

func TestScoresScore(t *testing.T) {
	sc := Default().AD.Scores
	assert.Equal(t, 95.0, sc.Score("A"))
	assert.Equal(t, 60.0, sc.Score("C"))
	assert.Equal(t, 20.0, sc.Score("E"))
	assert.Equal(t, 0.0, sc.Score(""))
}

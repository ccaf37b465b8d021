package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "radlocal", cfg.Logger.ServiceName)
	assert.Equal(t, []string{"B0SS Intel"}, cfg.Intel.Channels)
	assert.Equal(t, time.Second, cfg.Intel.PollInterval)
	assert.Equal(t, 9, cfg.Map.MaxJumps)
	assert.Equal(t, "systems_cache.json", cfg.Map.CacheFile)
	assert.Equal(t, 30*time.Second, cfg.Alerts.Cooldown)
	assert.Equal(t, "https://esi.evetech.net/latest", cfg.ESI.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Tracker.PollInterval)
}

func TestHomeDirExpansion(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("intel.log_dir", "~/Documents/EVE/logs/Chatlogs")

	cfg, err := NewFromViper(v)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Intel.LogDir, "~", "tilde should be expanded")
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config { return NewDefaultConfig() }

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "no channels",
			mutate:  func(c *Config) { c.Intel.Channels = nil },
			wantMsg: "intel.channels",
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Intel.PollInterval = 0 },
			wantMsg: "intel.poll_interval",
		},
		{
			name:    "negative radius",
			mutate:  func(c *Config) { c.Map.MaxJumps = -1 },
			wantMsg: "map.max_jumps",
		},
		{
			name:    "zero threat workers",
			mutate:  func(c *Config) { c.Threat.Workers = 0 },
			wantMsg: "threat.workers",
		},
		{
			name:    "zero cooldown",
			mutate:  func(c *Config) { c.Alerts.Cooldown = 0 },
			wantMsg: "alerts.cooldown",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

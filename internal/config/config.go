// Package config defines the application configuration and its defaults.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Intel   IntelConfig   `mapstructure:"intel" yaml:"intel"`
	Map     MapConfig     `mapstructure:"map" yaml:"map"`
	Threat  ThreatConfig  `mapstructure:"threat" yaml:"threat"`
	Alerts  AlertsConfig  `mapstructure:"alerts" yaml:"alerts"`
	ESI     ESIConfig     `mapstructure:"esi" yaml:"esi"`
	Tracker TrackerConfig `mapstructure:"tracker" yaml:"tracker"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// IntelConfig configures chat log ingestion.
type IntelConfig struct {
	// LogDir is where the game writes its chat logs. A leading ~ is expanded.
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`
	// Channels are the intel channel names to follow.
	Channels []string `mapstructure:"channels" yaml:"channels"`
	// PollInterval is the delay between read passes over the open files.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// MapConfig configures the topology mapper and its persistent stores.
type MapConfig struct {
	CacheFile  string `mapstructure:"cache_file" yaml:"cache_file"`
	BridgeFile string `mapstructure:"bridge_file" yaml:"bridge_file"`
	// MaxJumps is the BFS radius around the observer.
	MaxJumps int `mapstructure:"max_jumps" yaml:"max_jumps"`
}

// ThreatConfig configures pilot threat profiling.
type ThreatConfig struct {
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file"`
	// HomeAllianceID marks pilots of this alliance as friendly. Zero disables
	// the check.
	HomeAllianceID int64 `mapstructure:"home_alliance_id" yaml:"home_alliance_id"`
	// StatsRateLimit caps combat-stats lookups per second.
	StatsRateLimit float64 `mapstructure:"stats_rate_limit" yaml:"stats_rate_limit"`
	// Workers is the number of goroutines resolving profiles off the
	// ingestion path.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// AlertsConfig configures the audio alert dispatcher.
type AlertsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Cooldown is the minimum interval between alerts for the same system.
	Cooldown time.Duration `mapstructure:"cooldown" yaml:"cooldown"`
	// Voice is the espeak-ng voice identifier.
	Voice string `mapstructure:"voice" yaml:"voice"`
	// Volume is the espeak-ng amplitude (0-200).
	Volume int `mapstructure:"volume" yaml:"volume"`
}

// ESIConfig configures the game API collaborators.
type ESIConfig struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	StatsBaseURL string        `mapstructure:"stats_base_url" yaml:"stats_base_url"`
	UserAgent    string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// TrackerConfig configures live observer location polling.
type TrackerConfig struct {
	CharacterID  int64         `mapstructure:"character_id" yaml:"character_id"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "radlocal")
	v.SetDefault("logger.log_file", "radlocal.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Intel ingestion --
	v.SetDefault("intel.log_dir", "~/EVE/logs/Chatlogs/")
	v.SetDefault("intel.channels", []string{"B0SS Intel"})
	v.SetDefault("intel.poll_interval", "1s")

	// -- Topology --
	v.SetDefault("map.cache_file", "systems_cache.json")
	v.SetDefault("map.bridge_file", "jump_bridges.json")
	v.SetDefault("map.max_jumps", 9)

	// -- Threat profiling --
	v.SetDefault("threat.cache_file", "threat_cache.json")
	v.SetDefault("threat.home_alliance_id", 0)
	v.SetDefault("threat.stats_rate_limit", 1.0)
	v.SetDefault("threat.workers", 2)

	// -- Alerts --
	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.cooldown", "30s")
	v.SetDefault("alerts.voice", "es")
	v.SetDefault("alerts.volume", 150)

	// -- ESI --
	v.SetDefault("esi.base_url", "https://esi.evetech.net/latest")
	v.SetDefault("esi.stats_base_url", "https://zkillboard.com/api")
	v.SetDefault("esi.user_agent", "radlocal intel tool")
	v.SetDefault("esi.timeout", "15s")

	// -- Tracker --
	v.SetDefault("tracker.character_id", 0)
	v.SetDefault("tracker.poll_interval", "5s")
}

// NewDefaultConfig returns a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewFromViper(v)
	if err != nil {
		// Defaults are static; this cannot fail unless they are broken.
		panic(fmt.Sprintf("failed to build default config: %v", err))
	}
	return cfg
}

// NewFromViper unmarshals and validates a configuration from a viper
// instance. The intel log directory has its ~ prefix expanded here so the
// rest of the program only ever sees absolute-ish paths.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	expanded, err := homedir.Expand(cfg.Intel.LogDir)
	if err != nil {
		return nil, fmt.Errorf("cannot expand intel.log_dir: %w", err)
	}
	cfg.Intel.LogDir = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if len(c.Intel.Channels) == 0 {
		return fmt.Errorf("intel.channels must name at least one channel")
	}
	if c.Intel.PollInterval <= 0 {
		return fmt.Errorf("intel.poll_interval must be a positive duration")
	}
	if c.Map.MaxJumps < 0 {
		return fmt.Errorf("map.max_jumps must not be negative")
	}
	if c.Threat.Workers <= 0 {
		return fmt.Errorf("threat.workers must be a positive integer")
	}
	if c.Threat.StatsRateLimit <= 0 {
		return fmt.Errorf("threat.stats_rate_limit must be positive")
	}
	if c.Alerts.Cooldown <= 0 {
		return fmt.Errorf("alerts.cooldown must be a positive duration")
	}
	if c.Tracker.PollInterval <= 0 {
		return fmt.Errorf("tracker.poll_interval must be a positive duration")
	}
	return nil
}

package cmd

import (
	"go.uber.org/zap"

	"github.com/edwardjardy/radlocal/internal/alerting"
	"github.com/edwardjardy/radlocal/internal/cartography"
	"github.com/edwardjardy/radlocal/internal/config"
	"github.com/edwardjardy/radlocal/internal/esi"
	"github.com/edwardjardy/radlocal/internal/network"
	"github.com/edwardjardy/radlocal/internal/threat"
)

// newESIClient builds the game API client from the shared HTTP pool.
func newESIClient(cfg *config.Config, logger *zap.Logger) *esi.Client {
	clientCfg := network.NewDefaultClientConfig()
	clientCfg.UserAgent = cfg.ESI.UserAgent
	if cfg.ESI.Timeout > 0 {
		clientCfg.RequestTimeout = cfg.ESI.Timeout
	}
	clientCfg.Logger = logger
	return esi.NewClient(cfg.ESI.BaseURL, network.NewClient(clientCfg), logger)
}

// newMapper wires the topology mapper to its persistent stores.
func newMapper(cfg *config.Config, source cartography.SystemSource, logger *zap.Logger) *cartography.Mapper {
	cache := cartography.NewNodeCache(cfg.Map.CacheFile, logger)
	bridges := cartography.NewBridgeManager(cfg.Map.BridgeFile, logger)
	return cartography.NewMapper(source, cache, bridges, logger)
}

// newProfiler wires the threat profiler to the game API and the combat-stats
// API, sharing the http pool tuning with the game client.
func newProfiler(cfg *config.Config, resolver threat.Resolver, logger *zap.Logger) *threat.Profiler {
	clientCfg := network.NewDefaultClientConfig()
	clientCfg.UserAgent = cfg.ESI.UserAgent
	clientCfg.Logger = logger
	stats := threat.NewZKillClient(cfg.ESI.StatsBaseURL, network.NewClient(clientCfg),
		cfg.Threat.StatsRateLimit, logger)
	return threat.NewProfiler(resolver, stats, cfg.Threat.CacheFile,
		cfg.Threat.HomeAllianceID, logger)
}

// newSpeaker picks the audio backend. When alerts are disabled or no
// synthesizer is installed the dispatcher still runs, just silently.
func newSpeaker(cfg *config.Config, logger *zap.Logger) alerting.Speaker {
	if !cfg.Alerts.Enabled {
		return alerting.SilentSpeaker{}
	}
	speaker := alerting.NewESpeakSpeaker(cfg.Alerts.Voice, cfg.Alerts.Volume, logger)
	if !speaker.Available() {
		logger.Warn("espeak-ng not found on PATH; alerts will be silent")
		return alerting.SilentSpeaker{}
	}
	return speaker
}

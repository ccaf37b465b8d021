package threat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/edwardjardy/radlocal/internal/esi"
)

// Outcome is the terminal result of one profiling call. There is no
// automatic retry: a caller seeing NotFound or NoHistory must simply
// re-invoke later.
type Outcome string

const (
	// OutcomeFriendly marks a pilot of the configured home alliance.
	OutcomeFriendly Outcome = "friendly"
	// OutcomeNotFound means the name resolved to no character. Not cached,
	// so a transient resolution failure cannot poison future lookups.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeNoHistory means combat stats were unavailable (rate limit,
	// fetch failure, or a pilot with no public kills). Not cached.
	OutcomeNoHistory Outcome = "no_history"
	// OutcomeClassified carries a ship label and role tags.
	OutcomeClassified Outcome = "classified"
)

// Assessment is the result of profiling one pilot.
type Assessment struct {
	Outcome Outcome
	// Ship is the pilot's most-used hull, for classified outcomes.
	Ship string
	// Tags is the role tag string, for classified outcomes.
	Tags string
	// FromCache reports whether the assessment was served without any
	// external call.
	FromCache bool
}

// String renders the assessment the way the intel feed displays it.
func (a Assessment) String() string {
	switch a.Outcome {
	case OutcomeFriendly:
		return "FRIENDLY"
	case OutcomeNotFound:
		return "NOT FOUND"
	case OutcomeNoHistory:
		return "NO PVP HISTORY"
	default:
		return fmt.Sprintf("%s - Profile: %s", a.Ship, a.Tags)
	}
}

// Resolver is the identity collaborator: name to id, id to affiliation.
type Resolver interface {
	ResolveCharacterID(ctx context.Context, name string) (int64, error)
	FetchAffiliation(ctx context.Context, characterID int64) (allianceID, corporationID int64, err error)
}

// StatsSource is the combat-history collaborator.
type StatsSource interface {
	FetchCombatStats(ctx context.Context, characterID int64) (*CombatStats, error)
}

// Profiler resolves pilot names to threat assessments. Each Profile call is
// a blocking, network-bound operation on a cache miss; callers on a
// streaming path should invoke it off the ingestion goroutine.
type Profiler struct {
	resolver Resolver
	stats    StatsSource
	cache    *profileCache
	// homeAllianceID short-circuits profiling for friendlies. Zero disables
	// the check.
	homeAllianceID int64
	logger         *zap.Logger
}

// NewProfiler builds a Profiler with its durable cache at cacheFile.
func NewProfiler(resolver Resolver, stats StatsSource, cacheFile string, homeAllianceID int64, logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("threat")
	return &Profiler{
		resolver:       resolver,
		stats:          stats,
		cache:          newProfileCache(cacheFile, logger),
		homeAllianceID: homeAllianceID,
		logger:         logger,
	}
}

// Profile assesses one pilot. The cache is consulted first (case-insensitive,
// 24-hour TTL); on a miss the pipeline is: resolve id, check affiliation,
// fetch combat stats, classify. All four outcomes are terminal for this call.
func (p *Profiler) Profile(ctx context.Context, name string) Assessment {
	if entry, ok := p.cache.get(name); ok {
		if entry.IsFriendly {
			return Assessment{Outcome: OutcomeFriendly, FromCache: true}
		}
		return Assessment{
			Outcome:   OutcomeClassified,
			Ship:      entry.TopShip,
			Tags:      entry.ThreatTag,
			FromCache: true,
		}
	}

	characterID, err := p.resolver.ResolveCharacterID(ctx, name)
	if err != nil {
		if !errors.Is(err, esi.ErrNotFound) {
			p.logger.Warn("Character resolution failed", zap.String("pilot", name), zap.Error(err))
		}
		return Assessment{Outcome: OutcomeNotFound}
	}

	allianceID, _, err := p.resolver.FetchAffiliation(ctx, characterID)
	if err != nil {
		p.logger.Warn("Affiliation lookup failed", zap.String("pilot", name), zap.Error(err))
		// Affiliation is only used to spot friendlies; without it we fall
		// through and profile the pilot as a potential hostile.
	} else if p.homeAllianceID != 0 && allianceID == p.homeAllianceID {
		p.cache.put(name, cacheEntry{IsFriendly: true})
		return Assessment{Outcome: OutcomeFriendly}
	}

	stats, err := p.stats.FetchCombatStats(ctx, characterID)
	if err != nil {
		if errors.Is(err, esi.ErrRateLimited) {
			p.logger.Warn("Combat stats rate limited", zap.String("pilot", name))
		} else {
			p.logger.Warn("Combat stats fetch failed", zap.String("pilot", name), zap.Error(err))
		}
		return Assessment{Outcome: OutcomeNoHistory}
	}

	ship, tags := classify(stats)
	p.cache.put(name, cacheEntry{TopShip: ship, ThreatTag: tags})

	p.logger.Debug("Pilot classified",
		zap.String("pilot", name),
		zap.String("ship", ship),
		zap.String("tags", tags))
	return Assessment{Outcome: OutcomeClassified, Ship: ship, Tags: tags}
}

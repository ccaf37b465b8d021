package threat

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/edwardjardy/radlocal/internal/esi"
	"github.com/edwardjardy/radlocal/internal/network"
)

// ZKillClient fetches combat statistics from the killboard. The killboard
// answers fast but bans aggressive callers, so every request goes through a
// rate limiter.
type ZKillClient struct {
	baseURL string
	http    *network.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewZKillClient builds a stats client capped at reqPerSec outbound requests.
func NewZKillClient(baseURL string, httpClient *network.Client, reqPerSec float64, logger *zap.Logger) *ZKillClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZKillClient{
		baseURL: baseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
		logger:  logger.Named("zkill"),
	}
}

// FetchCombatStats returns the pilot's ship usage and danger ratio.
// A 429 from the killboard surfaces as esi.ErrRateLimited.
func (z *ZKillClient) FetchCombatStats(ctx context.Context, characterID int64) (*CombatStats, error) {
	if err := z.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/stats/characterID/%d/", z.baseURL, characterID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := z.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching combat stats for %d: %w", characterID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		z.logger.Warn("Killboard rate limit hit", zap.Int64("character_id", characterID))
		return nil, esi.ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetching combat stats for %d: unexpected status %d", characterID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading combat stats: %w", err)
	}

	var payload struct {
		DangerRatio float64 `json:"dangerRatio"`
		TopLists    []struct {
			Type   string `json:"type"`
			Values []struct {
				Name string `json:"name"`
			} `json:"values"`
		} `json:"topLists"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding combat stats: %w", err)
	}

	stats := &CombatStats{DangerRatio: payload.DangerRatio}
	for _, list := range payload.TopLists {
		if list.Type != "shipType" {
			continue
		}
		for _, v := range list.Values {
			stats.TopShips = append(stats.TopShips, v.Name)
		}
		break
	}
	return stats, nil
}

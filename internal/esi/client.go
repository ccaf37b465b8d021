// Package esi is the client for the game's public API: solar system data,
// character resolution, and live observer location.
package esi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/edwardjardy/radlocal/internal/network"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotFound means the entity does not exist upstream.
	ErrNotFound = errors.New("esi: not found")
	// ErrRateLimited means the upstream rejected the call temporarily.
	ErrRateLimited = errors.New("esi: rate limited")
)

// Position is a raw 3-axis coordinate as the API reports it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SolarSystem is the resolved node data for one system: name, position and
// the ids of systems reachable through its static gates.
type SolarSystem struct {
	ID        int64
	Name      string
	Position  Position
	Neighbors []int64
}

// Client talks to the game API. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *network.Client
	logger  *zap.Logger
	// token authorizes the location endpoint; everything else is public.
	token string
}

// NewClient builds an API client on top of the shared HTTP client.
func NewClient(baseURL string, httpClient *network.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger.Named("esi"),
	}
}

// SetToken installs the bearer token used for authenticated endpoints.
// Obtaining and refreshing the token is the caller's concern.
func (c *Client) SetToken(token string) { c.token = token }

// FetchSystem retrieves one solar system and resolves each of its stargates
// to the destination system id. A gate that fails to resolve is dropped
// rather than failing the whole system.
func (c *Client) FetchSystem(ctx context.Context, systemID int64) (*SolarSystem, error) {
	var sys struct {
		Name      string   `json:"name"`
		Position  Position `json:"position"`
		Stargates []int64  `json:"stargates"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/universe/systems/%d/", c.baseURL, systemID), &sys); err != nil {
		return nil, fmt.Errorf("fetching system %d: %w", systemID, err)
	}

	neighbors := make([]int64, 0, len(sys.Stargates))
	for _, gateID := range sys.Stargates {
		var gate struct {
			Destination struct {
				SystemID int64 `json:"system_id"`
			} `json:"destination"`
		}
		if err := c.getJSON(ctx, fmt.Sprintf("%s/universe/stargates/%d/", c.baseURL, gateID), &gate); err != nil {
			c.logger.Warn("Skipping unresolvable stargate",
				zap.Int64("system_id", systemID),
				zap.Int64("stargate_id", gateID),
				zap.Error(err))
			continue
		}
		neighbors = append(neighbors, gate.Destination.SystemID)
	}

	return &SolarSystem{
		ID:        systemID,
		Name:      sys.Name,
		Position:  sys.Position,
		Neighbors: neighbors,
	}, nil
}

// ResolveCharacterID converts a pilot name into its stable character id.
// Returns ErrNotFound when the name does not resolve to any character.
func (c *Client) ResolveCharacterID(ctx context.Context, name string) (int64, error) {
	payload, err := json.Marshal([]string{name})
	if err != nil {
		return 0, fmt.Errorf("encoding name lookup: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/universe/ids/", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res struct {
		Characters []struct {
			ID int64 `json:"id"`
		} `json:"characters"`
	}
	if err := c.doJSON(req, &res); err != nil {
		return 0, fmt.Errorf("resolving character %q: %w", name, err)
	}
	if len(res.Characters) == 0 {
		return 0, ErrNotFound
	}
	return res.Characters[0].ID, nil
}

// FetchAffiliation returns the alliance and corporation a character currently
// belongs to. Alliance may be zero for unaffiliated characters.
func (c *Client) FetchAffiliation(ctx context.Context, characterID int64) (allianceID, corporationID int64, err error) {
	var sheet struct {
		AllianceID    int64 `json:"alliance_id"`
		CorporationID int64 `json:"corporation_id"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/characters/%d/", c.baseURL, characterID), &sheet); err != nil {
		return 0, 0, fmt.Errorf("fetching affiliation of %d: %w", characterID, err)
	}
	return sheet.AllianceID, sheet.CorporationID, nil
}

// FetchLocation returns the solar system the character is currently in.
// Requires a token; the endpoint is cached upstream for about five seconds,
// so callers should not poll faster than that.
func (c *Client) FetchLocation(ctx context.Context, characterID int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/characters/%d/location/", c.baseURL, characterID), nil)
	if err != nil {
		return 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	var loc struct {
		SolarSystemID int64 `json:"solar_system_id"`
	}
	if err := c.doJSON(req, &loc); err != nil {
		return 0, fmt.Errorf("fetching location of %d: %w", characterID, err)
	}
	return loc.SolarSystemID, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 400:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

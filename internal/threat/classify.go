// Package threat resolves pilot names into threat assessments, backed by a
// 24-hour cache and two external collaborators (the game API for identity
// and affiliation, a killboard for combat history).
package threat

import "strings"

// Role classifier ship lists. These are deliberately name-based heuristics:
// the killboard reports hull names, and matching against a handful of
// well-known doctrine hulls is enough to tag a pilot's play style.
var (
	shipsTackle = []string{
		"Sabre", "Flycatcher", "Eris", "Heretic", "Stiletto", "Malediction",
		"Crow", "Ares", "Broadsword", "Onyx", "Phobos", "Devoter",
	}
	shipsBlops = []string{
		"Panther", "Redeemer", "Widow", "Sin", "Marshal", "Tengu", "Loki",
		"Legion", "Proteus",
	}
	shipsBomber = []string{"Hound", "Nemesis", "Manticore", "Purifier"}
	shipsHunter = []string{
		"Kikimora", "Orthrus", "Omen Navy Issue", "Osprey Navy Issue",
		"Vagabond", "Vedmak",
	}
)

const (
	tagTackle = "TACKLE/INTERDICTOR"
	tagBlops  = "BLOPS/DROPPER"
	tagBomber = "BOMBER"
	tagHunter = "KITE/HUNTER"

	// dangerThreshold is the killboard danger ratio above which a pilot
	// earns the dangerous qualifier.
	dangerThreshold = 80
)

// CombatStats is the killboard summary used for classification.
type CombatStats struct {
	// TopShips are hull names ordered by usage, most used first.
	TopShips []string
	// DangerRatio is the killboard's 0-100 aggression score.
	DangerRatio float64
}

// classify derives (primary ship, role tags) from combat stats, examining
// the three most-used hulls.
func classify(stats *CombatStats) (ship, tags string) {
	if len(stats.TopShips) == 0 {
		return "Unknown", "Minimal/Industrial"
	}

	var roles []string
	appendRole := func(tag string) {
		for _, r := range roles {
			if r == tag {
				return
			}
		}
		roles = append(roles, tag)
	}

	top := stats.TopShips
	if len(top) > 3 {
		top = top[:3]
	}
	for _, name := range top {
		if containsName(shipsTackle, name) {
			appendRole(tagTackle)
		}
		if containsName(shipsBlops, name) {
			appendRole(tagBlops)
		}
		if containsName(shipsBomber, name) {
			appendRole(tagBomber)
		}
		if containsName(shipsHunter, name) {
			appendRole(tagHunter)
		}
	}

	tags = "General PVP"
	if len(roles) > 0 {
		tags = strings.Join(roles, " | ")
	}
	if stats.DangerRatio > dangerThreshold {
		tags += " (dangerous)"
	}
	return stats.TopShips[0], tags
}

func containsName(list []string, name string) bool {
	for _, s := range list {
		if s == name {
			return true
		}
	}
	return false
}

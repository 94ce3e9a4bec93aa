// Package selection resolves which concrete bet line stands for a user's
// choice: the best-priced duplicate of a line across bookmakers, or the
// preferred line of a player when switching prop category.
package selection

import (
	"math"

	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
)

func price(b *models.BetLine) float64 {
	if !b.HasOdds() {
		return 0
	}
	return b.Odds
}

// sameBet reports whether two lines are the same wager, possibly offered by
// different bookmakers.
func sameBet(a, b *models.BetLine) bool {
	return a.PlayerKey() == b.PlayerKey() &&
		a.Prop.Key == b.Prop.Key &&
		a.Side == b.Side &&
		a.Line == b.Line
}

// BestOdds returns the duplicate of target with the highest finite odds.
// The target is the initial best, so ties keep it or the first candidate
// encountered. A target without a player identity, a prop key or a finite
// line is returned unchanged.
func BestOdds(target models.BetLine, all []models.BetLine) models.BetLine {
	if target.PlayerKey() == "" || target.Prop.Key == "" || math.IsNaN(target.Line) || math.IsInf(target.Line, 0) {
		return target
	}
	best := target
	bestPrice := price(&target)
	for i := range all {
		c := &all[i]
		if !sameBet(&target, c) {
			continue
		}
		if p := price(c); p > bestPrice {
			best = *c
			bestPrice = p
		}
	}
	return best
}

type lineGroup struct {
	line     float64
	maxPrice float64
	over     *models.BetLine
	under    *models.BetLine
}

func (g *lineGroup) add(c *models.BetLine) {
	p := price(c)
	if p > g.maxPrice {
		g.maxPrice = p
	}
	if c.Side == models.SideUnder {
		if g.under == nil || p > price(g.under) {
			g.under = c
		}
		return
	}
	if g.over == nil || p > price(g.over) {
		g.over = c
	}
}

// ForCategory returns the line to show when the user switches target's
// player to the category button label. Among the player's MAIN lines for
// that prop, the line value with the best available price wins; within it
// the side with the higher hit rate over the last n games is chosen, OVER on
// a tie. The chosen line is then resolved to its best-priced duplicate.
// Unknown labels and categories without lines return target unchanged.
func ForCategory(target models.BetLine, all []models.BetLine, label string, n int) models.BetLine {
	propKey, ok := keys.UICategoryToPropKey(label)
	if !ok {
		return target
	}
	player := target.PlayerKey()
	if player == "" {
		return target
	}

	var groups []*lineGroup
	byLine := make(map[float64]*lineGroup)
	for i := range all {
		c := &all[i]
		if !c.IsMain() || c.Prop.Key != propKey || c.PlayerKey() != player {
			continue
		}
		g, ok := byLine[c.Line]
		if !ok {
			g = &lineGroup{line: c.Line}
			byLine[c.Line] = g
			groups = append(groups, g)
		}
		g.add(c)
	}
	if len(groups) == 0 {
		return target
	}

	best := groups[0]
	for _, g := range groups[1:] {
		if g.maxPrice > best.maxPrice {
			best = g
		}
	}

	chosen := best.over
	if best.under != nil && (chosen == nil || metrics.HitFor(best.under, n) > metrics.HitFor(chosen, n)) {
		chosen = best.under
	}
	return BestOdds(*chosen, all)
}

// AvailablePropKeys returns the MAIN-tier prop keys offered for target's
// player. Category buttons without a key in this set are disabled.
func AvailablePropKeys(target models.BetLine, all []models.BetLine) map[string]bool {
	out := make(map[string]bool)
	player := target.PlayerKey()
	if player == "" {
		return out
	}
	for i := range all {
		c := &all[i]
		if c.IsMain() && c.Prop.Key != "" && c.PlayerKey() == player {
			out[c.Prop.Key] = true
		}
	}
	return out
}

// TabHasAny reports whether any button of tab maps to an available key.
func TabHasAny(tab keys.Tab, available map[string]bool) bool {
	for _, l := range tab.Labels {
		if k, ok := keys.UICategoryToPropKey(l); ok && available[k] {
			return true
		}
	}
	return false
}

// IsCategoryActive reports whether the button label selects target's prop.
func IsCategoryActive(label string, target models.BetLine) bool {
	k, ok := keys.UICategoryToPropKey(label)
	return ok && k == target.Prop.Key
}

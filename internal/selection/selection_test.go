package selection

import (
	"math"
	"testing"

	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/models"
)

func line(id, player, prop string, side models.Side, value, odds float64) models.BetLine {
	return models.BetLine{
		ID:     id,
		Player: models.Player{ID: player, Name: "Player " + player},
		Prop:   models.Prop{Key: prop, Label: prop, Tier: models.TierMain},
		Side:   side,
		Line:   value,
		Odds:   odds,
	}
}

func withGames(b models.BetLine, stats ...float64) models.BetLine {
	for _, s := range stats {
		b.Games = append(b.Games, models.Game{Stat: models.Float(s)})
	}
	return b
}

func TestBestOdds(t *testing.T) {
	all := []models.BetLine{
		line("a", "7", keys.PropPoints, models.SideOver, 12.5, 1.80),
		line("b", "7", keys.PropPoints, models.SideOver, 12.5, 2.10),
		line("c", "7", keys.PropPoints, models.SideOver, 12.5, 1.95),
	}

	got := BestOdds(all[0], all)
	if got.ID != "b" {
		t.Errorf("Expected line b (2.10), got %s (%.2f)", got.ID, got.Odds)
	}
}

func TestBestOddsIgnoresOtherBets(t *testing.T) {
	target := line("t", "7", keys.PropPoints, models.SideOver, 12.5, 1.80)
	all := []models.BetLine{
		target,
		line("side", "7", keys.PropPoints, models.SideUnder, 12.5, 3.00),
		line("value", "7", keys.PropPoints, models.SideOver, 13.5, 3.00),
		line("prop", "7", keys.PropRebounds, models.SideOver, 12.5, 3.00),
		line("player", "8", keys.PropPoints, models.SideOver, 12.5, 3.00),
	}

	if got := BestOdds(target, all); got.ID != "t" {
		t.Errorf("Expected target unchanged, got %s", got.ID)
	}
}

func TestBestOddsTieKeepsFirst(t *testing.T) {
	target := line("t", "7", keys.PropPoints, models.SideOver, 12.5, 1.50)
	all := []models.BetLine{
		line("first", "7", keys.PropPoints, models.SideOver, 12.5, 2.00),
		line("second", "7", keys.PropPoints, models.SideOver, 12.5, 2.00),
	}
	if got := BestOdds(target, all); got.ID != "first" {
		t.Errorf("Expected first, got %s", got.ID)
	}

	target.Odds = 2.00
	if got := BestOdds(target, all); got.ID != "t" {
		t.Errorf("Expected target to win the tie, got %s", got.ID)
	}
}

func TestBestOddsMatchesByName(t *testing.T) {
	target := models.BetLine{
		ID:     "t",
		Player: models.Player{Name: "Vezenkov"},
		Prop:   models.Prop{Key: keys.PropPoints},
		Side:   models.SideOver,
		Line:   15.5,
		Odds:   1.7,
	}
	other := target
	other.ID = "o"
	other.Player.Name = "VEZENKOV"
	other.Odds = 1.9

	if got := BestOdds(target, []models.BetLine{other}); got.ID != "o" {
		t.Errorf("Expected name match to resolve to o, got %s", got.ID)
	}
}

func TestBestOddsIncompleteTarget(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *models.BetLine)
	}{
		{name: "empty prop key", mutate: func(b *models.BetLine) { b.Prop.Key = "" }},
		{name: "NaN line", mutate: func(b *models.BetLine) { b.Line = math.NaN() }},
		{name: "infinite line", mutate: func(b *models.BetLine) { b.Line = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := line("t", "7", keys.PropPoints, models.SideOver, 12.5, 1.80)
			other := line("o", "7", keys.PropPoints, models.SideOver, 12.5, 2.50)
			tt.mutate(&target)
			tt.mutate(&other)

			if got := BestOdds(target, []models.BetLine{target, other}); got.ID != "t" {
				t.Errorf("Expected target t unchanged, got %s", got.ID)
			}
		})
	}
}

func TestForCategory(t *testing.T) {
	target := line("pts", "7", keys.PropPoints, models.SideOver, 12.5, 1.9)
	all := []models.BetLine{
		target,
		// line 4.5: best price 1.95
		withGames(line("r45o", "7", keys.PropRebounds, models.SideOver, 4.5, 1.85), 5, 5, 5, 5, 5),
		withGames(line("r45u", "7", keys.PropRebounds, models.SideUnder, 4.5, 1.95), 5, 5, 5, 5, 5),
		// line 5.5: best price 2.40
		withGames(line("r55o", "7", keys.PropRebounds, models.SideOver, 5.5, 2.40), 6, 3, 3, 3, 3),
		withGames(line("r55u", "7", keys.PropRebounds, models.SideUnder, 5.5, 1.55), 6, 3, 3, 3, 3),
		// duplicate of the under at a better price from another book
		withGames(line("r55u-b", "7", keys.PropRebounds, models.SideUnder, 5.5, 1.60), 6, 3, 3, 3, 3),
		// ALT lines never qualify
		func() models.BetLine {
			b := line("alt", "7", keys.PropRebounds, models.SideOver, 9.5, 6.0)
			b.Prop.Tier = models.TierAlt
			return b
		}(),
	}

	got := ForCategory(target, all, "REB", 5)
	// Under hits 4/5 vs over 1/5, and resolves to the better priced duplicate.
	if got.ID != "r55u-b" {
		t.Errorf("Expected r55u-b, got %s", got.ID)
	}
}

func TestForCategoryTieFavorsOver(t *testing.T) {
	target := line("pts", "7", keys.PropPoints, models.SideOver, 12.5, 1.9)
	all := []models.BetLine{
		withGames(line("o", "7", keys.PropAssists, models.SideOver, 3.5, 1.9), 4, 2),
		withGames(line("u", "7", keys.PropAssists, models.SideUnder, 3.5, 1.9), 4, 2),
	}
	if got := ForCategory(target, all, "AST", 5); got.ID != "o" {
		t.Errorf("Expected OVER on tie, got %s", got.ID)
	}
}

func TestForCategoryNoCandidates(t *testing.T) {
	target := line("pts", "7", keys.PropPoints, models.SideOver, 12.5, 1.9)
	all := []models.BetLine{target}

	if got := ForCategory(target, all, "BLK", 5); got.ID != "pts" {
		t.Errorf("Expected target unchanged, got %s", got.ID)
	}
	if got := ForCategory(target, all, "NOT A BUTTON", 5); got.ID != "pts" {
		t.Errorf("Expected target unchanged for unknown label, got %s", got.ID)
	}
}

func TestAvailableAndTabs(t *testing.T) {
	target := line("pts", "7", keys.PropPoints, models.SideOver, 12.5, 1.9)
	alt := line("alt", "7", keys.Prop3PM, models.SideOver, 2.5, 2.0)
	alt.Prop.Tier = models.TierAlt
	all := []models.BetLine{
		target,
		line("reb", "7", keys.PropRebounds, models.SideOver, 4.5, 1.9),
		line("other", "8", keys.PropPRA, models.SideOver, 20.5, 1.9),
		alt,
	}

	avail := AvailablePropKeys(target, all)
	if !avail[keys.PropPoints] || !avail[keys.PropRebounds] {
		t.Errorf("Expected PTS and REB available, got %v", avail)
	}
	if avail[keys.PropPRA] || avail[keys.Prop3PM] {
		t.Errorf("Expected other player and ALT keys excluded, got %v", avail)
	}

	tabs := make(map[string]keys.Tab)
	for _, tab := range keys.CategoryTabs {
		tabs[tab.Name] = tab
	}
	if !TabHasAny(tabs["MAIN"], avail) {
		t.Errorf("Expected MAIN tab to have lines")
	}
	if TabHasAny(tabs["COMBOS"], avail) {
		t.Errorf("Expected COMBOS tab to be empty")
	}

	if !IsCategoryActive("pts", target) {
		t.Errorf("Expected PTS active")
	}
	if IsCategoryActive("REB", target) {
		t.Errorf("Expected REB inactive")
	}
}

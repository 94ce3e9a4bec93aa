package feed

import (
	"reflect"
	"testing"

	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
)

func oddsLine(id string, odds float64) models.BetLine {
	return models.BetLine{
		ID:     id,
		Player: models.Player{Name: "P " + id},
		Prop:   models.Prop{Key: "POINTS", Label: "Points", Tier: models.TierMain},
		Side:   models.SideOver,
		Odds:   odds,
	}
}

func TestApplyOddsRange(t *testing.T) {
	odds := []float64{1.2, 1.5, 1.8, 2.1, 2.4, 2.7, 3.0, 3.3, 3.6, 4.0}
	lines := make([]models.BetLine, len(odds))
	for i, o := range odds {
		lines[i] = oddsLine(string(rune('a'+i)), o)
	}

	st := DefaultState().WithOddsRange("1.40", "3.00")
	got := Apply(lines, st)

	wantIDs := []string{"b", "c", "d", "e", "f", "g"}
	if len(got) != len(wantIDs) {
		t.Fatalf("Expected %d lines, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if len(lines) != 10 || lines[0].ID != "a" {
		t.Errorf("Expected input untouched")
	}
}

func TestApplyCommaOddsAndFallback(t *testing.T) {
	lines := []models.BetLine{oddsLine("a", 1.05), oddsLine("b", 2.5), oddsLine("c", 150)}

	got := Apply(lines, DefaultState().WithOddsRange("2,0", "3,0"))
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Expected only b with comma bounds, got %v", ids(got))
	}

	got = Apply(lines, DefaultState().WithOddsRange("abc", ""))
	if len(got) != 2 {
		t.Errorf("Expected fallback range 1.0-100.0 to keep 2 lines, got %v", ids(got))
	}
}

func ids(lines []models.BetLine) []string {
	out := make([]string, len(lines))
	for i := range lines {
		out[i] = lines[i].ID
	}
	return out
}

func TestParseOdds(t *testing.T) {
	tests := []struct {
		in       string
		fallback float64
		want     float64
	}{
		{"1.40", 1, 1.4},
		{"1,40", 1, 1.4},
		{" 3 ", 1, 3},
		{"", 100, 100},
		{"x1", 1, 1},
		{"1.2.3", 1, 1},
	}
	for _, tt := range tests {
		if got := ParseOdds(tt.in, tt.fallback); got != tt.want {
			t.Errorf("ParseOdds(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

func withStats(b models.BetLine, line float64, stats ...float64) models.BetLine {
	b.Line = line
	for _, s := range stats {
		b.Games = append(b.Games, models.Game{Stat: models.Float(s)})
	}
	return b
}

func TestApplySort(t *testing.T) {
	lines := []models.BetLine{
		withStats(oddsLine("low", 2), 10, 5, 5, 5, 5, 5),      // 0%
		withStats(oddsLine("high", 2), 10, 12, 12, 12, 12, 12), // 100%
		withStats(oddsLine("mid", 2), 10, 12, 5, 12, 5, 5),     // 40%
		withStats(oddsLine("mid2", 2), 10, 5, 12, 5, 12, 5),    // 40%
	}
	st := DefaultState().WithSort(metrics.SortKey{Window: 5})

	got := ids(Apply(lines, st))
	want := []string{"high", "mid", "mid2", "low"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	got = ids(Apply(lines, st.ToggleSortDir()))
	want = []string{"low", "mid", "mid2", "high"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v ascending, got %v", want, got)
	}

	// Edge sort: same hit rate, lower odds means lower implied edge.
	lines[2].Odds = 1.5 // 40 - 66.7
	lines[3].Odds = 3.0 // 40 - 33.3
	got = ids(Apply(lines, st.WithSort(metrics.SortKey{Window: 5, Edge: true})))
	want = []string{"high", "mid2", "mid", "low"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v by edge, got %v", want, got)
	}
}

func TestApplyFilters(t *testing.T) {
	mk := func(id, name, team, label string, tier models.Tier) models.BetLine {
		b := oddsLine(id, 2)
		b.Player.Name = name
		b.TeamKey = team
		b.Prop.Label = label
		b.Prop.Tier = tier
		return b
	}
	lines := []models.BetLine{
		mk("1", "VEZENKOV, SASHA", "olympiacos", "Points", models.TierMain),
		mk("2", "VEZENKOV, SASHA", "olympiacos", "Rebounds", models.TierMain),
		mk("3", "NUNN, KENDRICK", "panathinaikos", "Points", models.TierAlt),
		mk("4", "SLOUKAS, KOSTAS", "panathinaikos", "Points", models.TierMain),
	}

	tests := []struct {
		name string
		st   State
		want []string
	}{
		{"default", DefaultState(), []string{"1", "2", "3", "4"}},
		{"main scope", DefaultState().WithScope("main"), []string{"1", "2", "4"}},
		{"alt scope", DefaultState().WithScope("ALT"), []string{"3"}},
		{"category", DefaultState().ToggleCategory("Rebounds"), []string{"2"}},
		{"team", DefaultState().WithTeam("panathinaikos"), []string{"3", "4"}},
		{"player", DefaultState().TogglePlayer("olympiacos::VEZENKOV, SASHA"), []string{"1", "2"}},
		{"team and category", DefaultState().WithTeam("olympiacos").ToggleCategory("Points"), []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(lines, tt.st))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestApplyResolvesRawTeam(t *testing.T) {
	b := oddsLine("x", 2)
	b.Player.Team = "Olympiacos Piraeus"
	got := Apply([]models.BetLine{b}, DefaultState().WithTeam("olympiacos"))
	if len(got) != 1 {
		t.Errorf("Expected raw team to resolve to olympiacos, got %d lines", len(got))
	}
}

func TestStateTransitionsArePure(t *testing.T) {
	base := DefaultState().ToggleCategory("Points").TogglePlayer("a::X")
	next := base.ToggleCategory("Rebounds").TogglePlayer("b::Y")

	if len(base.PropCategories) != 1 || len(base.SelectedPlayers) != 1 {
		t.Errorf("Expected base state unchanged, got %+v", base)
	}
	if len(next.PropCategories) != 2 || len(next.SelectedPlayers) != 2 {
		t.Errorf("Expected next state to carry both, got %+v", next)
	}

	off := next.ToggleCategory("Points")
	if !reflect.DeepEqual(off.PropCategories, []string{"Rebounds"}) {
		t.Errorf("Expected Points toggled off, got %v", off.PropCategories)
	}
	if cleared := off.ClearCategories(); cleared.PropCategories != nil {
		t.Errorf("Expected categories cleared")
	}
}

func TestWithTeamDropsOtherPlayers(t *testing.T) {
	st := DefaultState().
		TogglePlayer("olympiacos::A").
		TogglePlayer("panathinaikos::B").
		WithTeam("olympiacos")

	if !reflect.DeepEqual(st.SelectedPlayers, []string{"olympiacos::A"}) {
		t.Errorf("Expected only olympiacos player kept, got %v", st.SelectedPlayers)
	}
	if st = st.ClearPlayers(); st.SelectedTeam != "" || st.SelectedPlayers != nil {
		t.Errorf("Expected players and team cleared, got %+v", st)
	}
}

func TestQueryKeyAndSimpleTransitions(t *testing.T) {
	st := DefaultState()
	if st.QueryKey() != "upcoming|all|ALL" {
		t.Errorf("Unexpected default query key %q", st.QueryKey())
	}
	if st.SortKey != metrics.DefaultSortKey || st.SortDir != SortDesc || st.LastN != 15 {
		t.Errorf("Unexpected default sort state %+v", st)
	}

	st = st.WithMatch("2025-01-10|olympiacos|real_madrid").WithBookmaker("Novibet").WithScope("bogus")
	if st.QueryKey() != "2025-01-10|olympiacos|real_madrid|Novibet|ALL" {
		t.Errorf("Unexpected query key %q", st.QueryKey())
	}
	if st.WithMatch("").Match != DefaultMatch || st.WithBookmaker(" ").Bookmaker != DefaultBookmaker {
		t.Errorf("Expected empty match and bookmaker to reset to defaults")
	}

	if st.WithLastN(10).LastN != 10 || st.WithLastN(7).LastN != 15 {
		t.Errorf("Expected only supported windows accepted")
	}
	if st.WithSortDir("ASC").SortDir != SortAsc || st.WithSortDir("x").SortDir != SortDesc {
		t.Errorf("Unexpected sort dir parsing")
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"VEZENKOV,SASHA", "SASHA", "VEZENKOV"},
		{"VEZENKOV, SASHA", "SASHA", "VEZENKOV"},
		{"CARSEN EDWARDS,CARSEN", "CARSEN", "EDWARDS"},
		{"Kendrick Nunn", "Kendrick", "Nunn"},
		{"Juan Nunez Garcia", "Juan Nunez", "Garcia"},
		{"Mirotic", "Mirotic", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = (%q, %q), expected (%q, %q)", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestOptions(t *testing.T) {
	mk := func(name, team, label string) models.BetLine {
		return models.BetLine{Player: models.Player{Name: name}, TeamKey: team, Prop: models.Prop{Label: label}}
	}
	lines := []models.BetLine{
		mk("NUNN, KENDRICK", "panathinaikos", "Points"),
		mk("NUNN, KENDRICK", "panathinaikos", "Assists"),
		mk("VEZENKOV, SASHA", "olympiacos", "Points"),
		mk("", "olympiacos", "Rebounds"),
		mk("Mirotic", "", " "),
	}

	cats, players := Options(lines)
	if !reflect.DeepEqual(cats, []string{"Points", "Assists", "Rebounds"}) {
		t.Errorf("Unexpected categories %v", cats)
	}
	if len(players) != 3 {
		t.Fatalf("Expected 3 players, got %d", len(players))
	}
	if players[0].Key != "panathinaikos::NUNN, KENDRICK" || players[0].Surname != "NUNN" || players[0].Name != "KENDRICK" {
		t.Errorf("Unexpected first player %+v", players[0])
	}
	if players[2].Surname != "Mirotic" || players[2].Key != "::Mirotic" {
		t.Errorf("Expected single-token name as surname, got %+v", players[2])
	}

	found := SearchPlayers(players, "", "ve")
	if len(found) != 1 || found[0].Surname != "VEZENKOV" {
		t.Errorf("Expected surname prefix search to find VEZENKOV, got %v", found)
	}
	sorted := SearchPlayers(players, "", "")
	if sorted[0].Surname != "Mirotic" || sorted[2].Surname != "VEZENKOV" {
		t.Errorf("Expected surname order, got %v", sorted)
	}
	if byTeam := SearchPlayers(players, "olympiacos", ""); len(byTeam) != 1 {
		t.Errorf("Expected one olympiacos player, got %v", byTeam)
	}
}

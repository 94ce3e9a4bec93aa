package feed

import (
	"sort"
	"strings"

	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/shopspring/decimal"
)

// Fallback bounds used when an odds bound cannot be parsed.
const (
	FallbackOddsMin = 1.0
	FallbackOddsMax = 100.0
)

const playerKeySep = "::"

// ParseOdds parses a decimal typed with either a comma or a dot. Empty or
// invalid input yields fallback.
func ParseOdds(s string, fallback float64) float64 {
	raw := strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if raw == "" {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback
	}
	return d.InexactFloat64()
}

// lineTeam returns the canonical team of a line, or its raw team text when
// it cannot be resolved.
func lineTeam(b *models.BetLine) string {
	if b.TeamKey != "" {
		return b.TeamKey
	}
	raw := strings.TrimSpace(b.Player.Team)
	if k, ok := keys.ResolveTeamKey(raw); ok {
		return k
	}
	return raw
}

// PlayerKey returns the player filter key of a line: "<team>::<raw name>".
func PlayerKey(b *models.BetLine) string {
	return lineTeam(b) + playerKeySep + strings.TrimSpace(b.Player.Name)
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// Apply runs the view pipeline: scope, category, team, player and odds
// filters, then a stable sort on the selected metric. The result is a new
// slice; lines is not modified.
func Apply(lines []models.BetLine, st State) []models.BetLine {
	cats := toSet(st.PropCategories)
	players := toSet(st.SelectedPlayers)
	oddsMin := ParseOdds(st.OddsMin, FallbackOddsMin)
	oddsMax := ParseOdds(st.OddsMax, FallbackOddsMax)

	type ranked struct {
		line  models.BetLine
		value float64
	}
	rows := make([]ranked, 0, len(lines))
	for i := range lines {
		b := &lines[i]
		switch st.Scope {
		case ScopeMain:
			if !b.IsMain() {
				continue
			}
		case ScopeAlt:
			if b.IsMain() {
				continue
			}
		}
		if cats != nil && !cats[strings.TrimSpace(b.Prop.Label)] {
			continue
		}
		if st.SelectedTeam != "" && lineTeam(b) != st.SelectedTeam {
			continue
		}
		if players != nil && !players[PlayerKey(b)] {
			continue
		}
		if b.Odds < oddsMin || b.Odds > oddsMax {
			continue
		}
		rows = append(rows, ranked{line: *b, value: st.SortKey.Value(b)})
	}

	asc := st.SortDir == SortAsc
	sort.SliceStable(rows, func(i, j int) bool {
		if asc {
			return rows[i].value < rows[j].value
		}
		return rows[i].value > rows[j].value
	})

	out := make([]models.BetLine, len(rows))
	for i := range rows {
		out[i] = rows[i].line
	}
	return out
}

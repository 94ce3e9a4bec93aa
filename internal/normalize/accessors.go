// Package normalize turns loosely-typed feed and history payloads into
// canonical models.
//
// The backend spells the same logical field many ways. Each logical field
// has an ordered accessor list of gjson paths below; the first path holding
// a non-empty scalar wins. The lists are package values so their priority
// order can be audited and tested apart from the code that reads them.
package normalize

import (
	"math"
	"strings"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

// Accessor is an ordered list of gjson paths for one logical field.
type Accessor []string

// Row-level accessors.
var (
	LineIDPaths     = Accessor{"id", "line_id", "lineId"}
	PlayerIDPaths   = Accessor{"player.id", "player_id", "playerId", "player.player_id", "player.playerId"}
	PlayerNamePaths = Accessor{"player.name", "playerName", "player_name"}
	PlayerTeamPaths = Accessor{"player.team", "team.name", "playerTeam", "player_team"}
	PlayerPosPaths  = Accessor{"player.pos", "player.position", "pos", "position"}
	SidePaths       = Accessor{"side", "betSide", "pick", "selection", "overUnder", "ou"}
	LinePaths       = Accessor{"line", "prop.line", "threshold"}
	OddsPaths       = Accessor{"odds", "price", "decimal", "oddsDecimal", "odds_decimal"}
	BookmakerPaths  = Accessor{"bookmaker", "book", "sportsbook"}
	TierPaths       = Accessor{"prop.tier", "tier"}
	BetTypePaths    = Accessor{"prop.bet_type", "prop.betType", "bet_type", "betType"}
	PropLabelPaths  = Accessor{"prop.label", "prop.ui_name"}
	UINamePaths     = Accessor{"prop.ui_name"}
	SheetKeyPaths   = Accessor{"prop.sheet_key", "prop.sheetKey", "sheet_key", "sheetKey"}
	PropHintPaths   = Accessor{"prop.key", "prop.label", "prop.ui_name", "propLabel", "market", "stat"}
	TeamLogoPaths   = Accessor{"team.logo", "teamLogo", "logo", "player.teamLogo", "player.logo", "team_logo"}
	TeamSlugPaths   = Accessor{"team_key", "teamKey"}
	// TeamNamePaths is tried after the explicit slug and the logo slug.
	TeamNamePaths = Accessor{
		"player.team", "team.name", "team.display", "teamName",
		"team_code", "teamCode", "team.code", "team.abbr", "teamAbbr",
	}
	TeamCodePaths = Accessor{
		"team_code", "teamCode", "teamAbbr", "team_abbr", "team.code", "team.abbr",
		"team", "playerTeam", "player_team",
		"player.team_code", "player.teamCode", "player.teamAbbr", "player.team_abbr", "player.team",
		"prop.team_code", "prop.teamCode", "prop.teamAbbr", "prop.team_abbr", "prop.team",
	}
	MatchPaths = Accessor{"canonical_match", "match", "game_key", "gameKey"}
	VenuePaths = Accessor{"ha", "homeAway", "home_away", "venue", "av", "isHome", "is_home"}
)

// Game-level accessors.
var (
	GameDatePaths  = Accessor{"date", "gameDate", "dt"}
	GameOppPaths   = Accessor{"opp", "opponent", "oppAbbr", "opp_abbr"}
	GameHAPaths    = Accessor{"ha", "homeAway", "home_away", "venue"}
	GameStatPaths  = Accessor{"stat", "value"}
	GameRoundPaths = Accessor{"round", "Round", "round_name", "roundName"}
	GameLogoPaths  = Accessor{"oppLogo", "opp_logo", "oppTeamLogo", "opp_team_logo", "opp.logo", "opp.teamLogo"}
	GameFinalPaths = Accessor{"final", "FINAL", "stats.final", "boxscore"}
	MinutesPaths   = Accessor{
		"minutes", "MINUTES", "Minutes", "mins", "min", "mp", "minutes_played", "minutesPlayed",
		"stats.minutes", "stats.mp", "boxscore.mp",
		"final.minutes", "final.MIN", "final.MP", "final.TIME", "final.Time", "final.time",
		"stats.MIN", "stats.MP", "boxscore.MIN", "boxscore.MP",
	}
	HistoryGamesPaths = Accessor{"recent_games", "recentGames", "games"}
)

// scalar reports whether r holds a value that can be read as text or number.
func scalar(r gjson.Result) bool {
	switch r.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return true
	}
	return false
}

// String returns the first non-empty trimmed scalar found along the accessor.
func (a Accessor) String(doc gjson.Result) string {
	for _, p := range a {
		r := doc.Get(p)
		if !scalar(r) {
			continue
		}
		if s := strings.TrimSpace(r.String()); s != "" {
			return s
		}
	}
	return ""
}

// Number returns the first finite number found along the accessor. Numeric
// strings are accepted, with a comma allowed as decimal separator.
func (a Accessor) Number(doc gjson.Result) (float64, bool) {
	for _, p := range a {
		if v, ok := toNumber(doc.Get(p)); ok {
			return v, true
		}
	}
	return 0, false
}

// Raw returns the first existing non-null value along the accessor.
func (a Accessor) Raw(doc gjson.Result) (gjson.Result, bool) {
	for _, p := range a {
		r := doc.Get(p)
		if r.Exists() && r.Type != gjson.Null {
			return r, true
		}
	}
	return gjson.Result{}, false
}

func toNumber(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return finite(r.Num)
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(r.Str), ",", ".")
		if s == "" {
			return 0, false
		}
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return 0, false
		}
		return finite(v)
	}
	return 0, false
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

package projection

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/spf13/cast"
)

// Minutes filter bounds and step.
const (
	MinutesLimitLow  = 0.5
	MinutesLimitHigh = 50.0
	MinutesStep      = 0.5
)

var roundDigits = regexp.MustCompile(`\d+`)

// Options controls how games become points.
type Options struct {
	LastN      int // 0 keeps every game
	Projection bool
	Delta      float64
	Dir        Direction
}

// VenueFromHA classifies a raw home/away marker. Only "A", "AWAY" and "@"
// are away; anything else, including no marker, is home.
func VenueFromHA(ha string) models.Venue {
	switch strings.ToUpper(strings.TrimSpace(ha)) {
	case "A", "AWAY", "@":
		return models.VenueAway
	}
	return models.VenueHome
}

// RoundNumber extracts the first number of a round label ("Round 12" is
// 12). 0 when the label has none.
func RoundNumber(round string) int {
	m := roundDigits.FindString(round)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// gameStat reads the stat of a game for propKey: history games carry a
// box score, feed games a single stat.
func gameStat(g *models.Game, propKey string) float64 {
	if len(g.Final) > 0 {
		return StatForProp(g.Final, propKey)
	}
	if g.Stat != nil && !math.IsNaN(*g.Stat) && !math.IsInf(*g.Stat, 0) {
		return *g.Stat
	}
	return 0
}

// Points converts the last opts.LastN games into chart points for line,
// projected when opts.Projection is set. Points keep source order; see Order.
func Points(line *models.BetLine, games []models.Game, opts Options) []models.GamePoint {
	if opts.LastN > 0 {
		games = metrics.LastN(games, opts.LastN)
	}
	out := make([]models.GamePoint, 0, len(games))
	for i := range games {
		g := &games[i]
		raw := gameStat(g, line.Prop.Key)
		p := models.GamePoint{
			Stat:     raw,
			RawStat:  raw,
			Date:     g.Date,
			Opp:      g.Opp,
			HA:       g.HA,
			Venue:    VenueFromHA(g.HA),
			Round:    g.Round,
			RoundNum: RoundNumber(g.Round),
			OppLogo:  g.OppLogo,
			Index:    i,
		}
		if p.OppLogo == "" {
			p.OppLogo = g.Opp
		}
		if g.Minutes != nil {
			m := *g.Minutes
			p.MinutesRaw = &m
			projected := m
			if opts.Projection {
				p.Stat, projected = Project(raw, m, true, opts.Delta, opts.Dir)
			}
			p.Minutes = &projected
		}
		out = append(out, p)
	}
	return out
}

func pointTime(p *models.GamePoint) (int64, bool) {
	if p.Date == "" {
		return 0, false
	}
	t, err := cast.ToTimeE(p.Date)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}

// Order sorts points most recent first: the larger round number, then the
// later date, then source order. Points without a round or a readable date
// sort after those with one.
func Order(points []models.GamePoint) []models.GamePoint {
	type keyed struct {
		p      models.GamePoint
		ts     int64
		hasTS  bool
		hasRnd bool
	}
	rows := make([]keyed, len(points))
	for i := range points {
		ts, ok := pointTime(&points[i])
		rows[i] = keyed{p: points[i], ts: ts, hasTS: ok, hasRnd: points[i].RoundNum > 0}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.hasRnd || b.hasRnd {
			ra, rb := -1, -1
			if a.hasRnd {
				ra = a.p.RoundNum
			}
			if b.hasRnd {
				rb = b.p.RoundNum
			}
			if ra != rb {
				return ra > rb
			}
		}
		if a.hasTS != b.hasTS {
			return a.hasTS
		}
		if a.hasTS && a.ts != b.ts {
			return a.ts > b.ts
		}
		return a.p.Index < b.p.Index
	})
	out := make([]models.GamePoint, len(rows))
	for i := range rows {
		out[i] = rows[i].p
	}
	return out
}

// ClampMinutes snaps v to the filter step and bounds.
func ClampMinutes(v float64) float64 {
	snapped := math.Round(v/MinutesStep) * MinutesStep
	return math.Min(MinutesLimitHigh, math.Max(MinutesLimitLow, snapped))
}

// FilterMinutes keeps points whose (projected) minutes lie between the two
// bounds. A nil bound takes the filter limit; with both nil the filter is off.
// While the filter is on, points without minutes are dropped.
func FilterMinutes(points []models.GamePoint, minMinutes, maxMinutes *float64) []models.GamePoint {
	if minMinutes == nil && maxMinutes == nil {
		return points
	}
	lo, hi := MinutesLimitLow, MinutesLimitHigh
	if minMinutes != nil {
		lo = ClampMinutes(*minMinutes)
	}
	if maxMinutes != nil {
		hi = ClampMinutes(*maxMinutes)
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	out := make([]models.GamePoint, 0, len(points))
	for _, p := range points {
		if p.Minutes == nil || math.IsNaN(*p.Minutes) || math.IsInf(*p.Minutes, 0) {
			continue
		}
		if *p.Minutes < lo || *p.Minutes > hi {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterVenue keeps points played at venue. An empty venue keeps all.
func FilterVenue(points []models.GamePoint, venue models.Venue) []models.GamePoint {
	if venue == "" {
		return points
	}
	out := make([]models.GamePoint, 0, len(points))
	for _, p := range points {
		if p.Venue == venue {
			out = append(out, p)
		}
	}
	return out
}

// Counts tallies points above, below and equal to the line, and the points
// that hit for the line's side.
type Counts struct {
	Over  int `json:"over"`
	Under int `json:"under"`
	Push  int `json:"push"`
	Hits  int `json:"hits"`
	Total int `json:"total"`
}

// Count tallies points against line for side.
func Count(points []models.GamePoint, side models.Side, line float64) Counts {
	var c Counts
	for _, p := range points {
		if math.IsNaN(p.Stat) || math.IsInf(p.Stat, 0) {
			continue
		}
		switch {
		case p.Stat > line:
			c.Over++
		case p.Stat < line:
			c.Under++
		default:
			c.Push++
		}
		if metrics.Hits(side, p.Stat, line) {
			c.Hits++
		}
	}
	c.Total = c.Over + c.Under + c.Push
	return c
}

// AverageMinutes averages the positive minutes of points.
func AverageMinutes(points []models.GamePoint) (float64, bool) {
	sum, n := 0.0, 0
	for _, p := range points {
		if p.Minutes == nil {
			continue
		}
		m := *p.Minutes
		if math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
			continue
		}
		sum += m
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Label is the axis label of a point: "vs OPP" or "at OPP", or the
// month-day of its date when the opponent is unknown.
func Label(p models.GamePoint) string {
	if p.Opp != "" {
		return string(p.Venue) + " " + p.Opp
	}
	if len(p.Date) >= 10 {
		return p.Date[5:10]
	}
	return ""
}

// UpcomingVenue infers whether line's next game is at home ("vs") or away
// ("at"). It reads the match identifier ("date|home|away" or
// "date_home_away"), then the upcoming match list codes, then the line's
// venue hint. Home is the default.
func UpcomingVenue(line *models.BetLine, matches []models.MatchOption) models.Venue {
	team := teamIdentities(line)
	if len(team) > 0 {
		if v, ok := venueFromMatchID(line.Match, team); ok {
			return v
		}
		for _, m := range matches {
			if len(m.Codes) < 2 {
				continue
			}
			if team[keys.NormTeamCode(m.Codes[0])] {
				return models.VenueHome
			}
			if team[keys.NormTeamCode(m.Codes[1])] {
				return models.VenueAway
			}
		}
	}
	if line.Venue != "" {
		return VenueFromHA(line.Venue)
	}
	return models.VenueHome
}

func teamIdentities(line *models.BetLine) map[string]bool {
	out := make(map[string]bool)
	for _, s := range []string{line.TeamCode, line.TeamKey, line.Player.Team} {
		if n := keys.NormTeamCode(s); n != "" {
			out[n] = true
		}
	}
	return out
}

func venueFromMatchID(id string, team map[string]bool) (models.Venue, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	for _, sep := range []string{"|", "_"} {
		parts := strings.Split(id, sep)
		if len(parts) < 3 {
			continue
		}
		if team[keys.NormTeamCode(parts[1])] {
			return models.VenueHome, true
		}
		if team[keys.NormTeamCode(parts[2])] {
			return models.VenueAway, true
		}
	}
	return "", false
}

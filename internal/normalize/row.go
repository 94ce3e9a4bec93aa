package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/tidwall/gjson"
)

// lineNamespace scopes generated line IDs.
var lineNamespace = uuid.MustParse("6f1c7a52-93d4-4c1e-9a5e-4b2f0f7d2a10")

// defaultPropLabel is shown when a record carries no prop label at all.
const defaultPropLabel = "Prop"

// Feed normalizes a feed response body. Only an invalid JSON body is an
// error: a non-array body yields an empty feed and non-object elements are
// skipped.
func Feed(body []byte) ([]models.BetLine, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse feed: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	lines := make([]models.BetLine, 0)
	if !doc.IsArray() {
		return lines, nil
	}
	doc.ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			lines = append(lines, fromResult(value))
		}
		return true
	})
	return lines, nil
}

// Row normalizes one raw feed record. Malformed input never fails: every
// field falls back to its default.
func Row(raw []byte) models.BetLine {
	return fromResult(gjson.ParseBytes(raw))
}

func fromResult(doc gjson.Result) models.BetLine {
	b := models.BetLine{
		Player: models.Player{
			ID:   PlayerIDPaths.String(doc),
			Name: PlayerNamePaths.String(doc),
			Team: PlayerTeamPaths.String(doc),
			Pos:  PlayerPosPaths.String(doc),
		},
		Side:      keys.NormalizeSide(SidePaths.String(doc)),
		Bookmaker: keys.CanonicalBookmaker(BookmakerPaths.String(doc)),
		Match:     MatchPaths.String(doc),
		TeamLogo:  TeamLogoPaths.String(doc),
		Venue:     venueHint(doc),
		Games:     games(doc.Get("games")),
	}

	b.Prop = prop(doc)

	if v, ok := LinePaths.Number(doc); ok {
		b.Line = v
	}
	if v, ok := OddsPaths.Number(doc); ok && v > 0 {
		b.Odds = v
	}

	for _, n := range models.Windows {
		if v, ok := toNumber(doc.Get("hit.L" + strconv.Itoa(n))); ok {
			b.Hit.Set(n, v)
		}
		if v, ok := toNumber(doc.Get("value.vL" + strconv.Itoa(n))); ok {
			b.Value.Set(n, v)
		}
	}

	b.TeamKey = teamKey(doc, b.TeamLogo)
	b.TeamCode = teamCode(doc, b.TeamLogo)

	b.ID = LineIDPaths.String(doc)
	if b.ID == "" {
		b.ID = StableID(&b)
	}

	return b
}

func prop(doc gjson.Result) models.Prop {
	p := models.Prop{
		Label:    PropLabelPaths.String(doc),
		UIName:   UINamePaths.String(doc),
		BetType:  BetTypePaths.String(doc),
		RawSheet: SheetKeyPaths.String(doc),
	}
	if p.Label == "" {
		p.Label = defaultPropLabel
	}
	p.Key = keys.NormalizePropKey(p.RawSheet, PropHintPaths.String(doc))

	switch strings.ToUpper(TierPaths.String(doc)) {
	case string(models.TierAlt):
		p.Tier = models.TierAlt
	case string(models.TierMain):
		p.Tier = models.TierMain
	default:
		if strings.Contains(strings.ToUpper(p.BetType), "ALT") {
			p.Tier = models.TierAlt
		} else {
			p.Tier = models.TierMain
		}
	}
	return p
}

// teamKey resolves the canonical team: explicit slug, then logo slug, then
// name and code fields. Empty when nothing resolves.
func teamKey(doc gjson.Result, logo string) string {
	candidates := make([]string, 0, len(TeamSlugPaths)+1+len(TeamNamePaths))
	for _, p := range TeamSlugPaths {
		candidates = append(candidates, Accessor{p}.String(doc))
	}
	candidates = append(candidates, keys.LogoSlug(logo))
	for _, p := range TeamNamePaths {
		candidates = append(candidates, Accessor{p}.String(doc))
	}
	for _, c := range candidates {
		if k, ok := keys.ResolveTeamKey(c); ok {
			return k
		}
	}
	return ""
}

// teamCode returns the provider team code from explicit fields, or from
// the logo file name.
func teamCode(doc gjson.Result, logo string) string {
	if c := keys.NormTeamCode(TeamCodePaths.String(doc)); c != "" {
		return c
	}
	return keys.TeamCodeFromLogo(logo)
}

func venueHint(doc gjson.Result) string {
	r, ok := VenuePaths.Raw(doc)
	if !ok {
		return ""
	}
	switch r.Type {
	case gjson.True:
		return "HOME"
	case gjson.False:
		return "AWAY"
	case gjson.String, gjson.Number:
		return strings.TrimSpace(r.String())
	}
	return ""
}

// StableID derives a deterministic ID from a line's identity so the same
// logical bet keeps its ID across fetches.
func StableID(b *models.BetLine) string {
	name := strings.Join([]string{
		b.PlayerKey(),
		b.Prop.Key,
		string(b.Side),
		strconv.FormatFloat(b.Line, 'f', -1, 64),
		b.Bookmaker,
	}, "|")
	return uuid.NewSHA1(lineNamespace, []byte(name)).String()
}

func games(arr gjson.Result) []models.Game {
	out := make([]models.Game, 0)
	if !arr.IsArray() {
		return out
	}
	arr.ForEach(func(_, g gjson.Result) bool {
		if g.IsObject() {
			out = append(out, game(g))
		}
		return true
	})
	return out
}

func game(doc gjson.Result) models.Game {
	g := models.Game{
		Date:    GameDatePaths.String(doc),
		Opp:     GameOppPaths.String(doc),
		HA:      GameHAPaths.String(doc),
		Round:   GameRoundPaths.String(doc),
		OppLogo: GameLogoPaths.String(doc),
	}
	if v, ok := GameStatPaths.Number(doc); ok {
		g.Stat = models.Float(v)
	}
	if m, ok := pickMinutes(doc); ok {
		g.Minutes = models.Float(m)
	}
	if r, ok := GameFinalPaths.Raw(doc); ok && r.IsObject() {
		if m, ok := r.Value().(map[string]interface{}); ok {
			g.Final = m
		}
	}
	return g
}

// History normalizes a player history response into its recent games.
func History(body []byte) ([]models.Game, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse history: invalid JSON")
	}
	doc := gjson.ParseBytes(body)
	if doc.IsArray() {
		return games(doc), nil
	}
	r, ok := HistoryGamesPaths.Raw(doc)
	if !ok {
		return make([]models.Game, 0), nil
	}
	return games(r), nil
}

// MatchOptions normalizes the upcoming matches response.
func MatchOptions(body []byte) ([]models.MatchOption, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse matches: invalid JSON")
	}
	out := make([]models.MatchOption, 0)
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return out, nil
	}
	doc.ForEach(func(_, m gjson.Result) bool {
		if !m.IsObject() {
			return true
		}
		opt := models.MatchOption{
			Label: strings.TrimSpace(m.Get("label").String()),
			Value: strings.TrimSpace(m.Get("value").String()),
		}
		m.Get("codes").ForEach(func(_, c gjson.Result) bool {
			opt.Codes = append(opt.Codes, strings.TrimSpace(c.String()))
			return true
		})
		if opt.Label == "" {
			opt.Label = opt.Value
		}
		if opt.Validate() == nil {
			out = append(out, opt)
		}
		return true
	})
	return out, nil
}

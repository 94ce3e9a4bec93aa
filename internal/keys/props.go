// Package keys maps the many spellings the betting backend uses for prop
// categories, sides, bookmakers and teams onto canonical keys.
//
// Every lookup is a declarative table evaluated in a fixed priority order.
// Nothing here returns an error: unknown input passes through in a
// normalized form so it can still be displayed.
package keys

import (
	"regexp"
	"strings"
)

// Canonical prop keys. These are the field names of a history box score.
const (
	PropPoints    = "POINTS"
	PropRebounds  = "TR"
	PropOffReb    = "OR"
	PropDefReb    = "DR"
	PropAssists   = "AS"
	PropTurnovers = "TO"
	PropSteals    = "ST"
	PropBlocks    = "BL"
	PropFGM       = "SH_M"
	PropFGA       = "SH_AT"
	Prop2PM       = "2P_M"
	Prop2PA       = "2P_A"
	Prop3PM       = "3P_M"
	Prop3PA       = "3P_A"
	PropFTM       = "FT_M"
	PropFTA       = "FT_A"
	PropPRA       = "PRA"
	PropPR        = "PR"
	PropPA        = "PA"
	PropRA        = "RA"
	PropPRB       = "PRB"
	PropPB        = "PB"
	PropSB        = "SB"
	PropFouls     = "FOULS"
	PropMinutes   = "MIN"
	PropDD        = "DD"
	PropTD        = "TD"
	PropQ1Points  = "Q1_PTS"
	PropQ1Reb     = "Q1_TR"
	PropQ1Ast     = "Q1_AS"
	PropQ13PM     = "Q1_3P_M"
)

// sheetCodes maps short codes, as bookmaker exports write sheet keys, to
// canonical keys. Matched on the trimmed uppercase input.
var sheetCodes = map[string]string{
	"OREB":    PropOffReb,
	"DREB":    PropDefReb,
	"REB":     PropRebounds,
	"TR":      PropRebounds,
	"AST":     PropAssists,
	"AS":      PropAssists,
	"STL":     PropSteals,
	"ST":      PropSteals,
	"BLK":     PropBlocks,
	"BL":      PropBlocks,
	"TO":      PropTurnovers,
	"PTS":     PropPoints,
	"POINTS":  PropPoints,
	"FGM":     PropFGM,
	"FGA":     PropFGA,
	"SH_AT":   PropFGA,
	"3PM":     Prop3PM,
	"2PM":     Prop2PM,
	"Q1_3PM":  PropQ13PM,
	"Q1_3P_M": PropQ13PM,
	"Q1_PTS":  PropQ1Points,
	"Q1_TR":   PropQ1Reb,
	"Q1_AS":   PropQ1Ast,
}

// humanLabels maps long labels to canonical keys. Matched on the uppercase
// input with inner whitespace collapsed.
var humanLabels = map[string]string{
	"OFFENSIVE REBOUNDS":           PropOffReb,
	"DEFENSIVE REBOUNDS":           PropDefReb,
	"REBOUNDS":                     PropRebounds,
	"ASSISTS":                      PropAssists,
	"STEALS":                       PropSteals,
	"BLOCKS":                       PropBlocks,
	"TURNOVERS":                    PropTurnovers,
	"FG MADE":                      PropFGM,
	"FIELD GOALS SCORED / FG MADE": PropFGM,
	"FIELD GOALS ATTEMPTED":        PropFGA,
	"3 POINTERS MADE":              Prop3PM,
	"FREE THROWS MADE":             PropFTM,
	"FREE THROWS ATTEMPTED":        PropFTA,
	"POINTS + REBOUNDS":            PropPR,
	"POINTS + ASSISTS":             PropPA,
	"REBOUNDS + ASSISTS":           PropRA,
	"POINTS + REBOUNDS + ASSISTS":  PropPRA,
	"DOUBLE DOUBLE":                PropDD,
	"TRIPLE DOUBLE":                PropTD,
	"1ST PERIOD POINTS":            PropQ1Points,
	"1ST PERIOD REBOUNDS":          PropQ1Reb,
	"1ST PERIOD ASSISTS":           PropQ1Ast,
	"1ST PERIOD 3 POINTERS MADE":   PropQ13PM,
}

// compactLabels is the last-chance table, matched on the input with
// whitespace and punctuation stripped ('+' and '_' kept).
var compactLabels = map[string]string{
	"POINTS":                  PropPoints,
	"PTS":                     PropPoints,
	"REBOUNDS":                PropRebounds,
	"REB":                     PropRebounds,
	"ASSISTS":                 PropAssists,
	"AST":                     PropAssists,
	"STEALS":                  PropSteals,
	"STL":                     PropSteals,
	"BLOCKS":                  PropBlocks,
	"BLK":                     PropBlocks,
	"TURNOVERS":               PropTurnovers,
	"TO":                      PropTurnovers,
	"3PM":                     Prop3PM,
	"3PTM":                    Prop3PM,
	"3POINTERSMADE":           Prop3PM,
	"3P_M":                    Prop3PM,
	"PTS+REB":                 PropPR,
	"POINTS+REBOUNDS":         PropPR,
	"PTS+AST":                 PropPA,
	"POINTS+ASSISTS":          PropPA,
	"REB+AST":                 PropRA,
	"REBOUNDS+ASSISTS":        PropRA,
	"PTS+REB+AST":             PropPRA,
	"POINTS+REBOUNDS+ASSISTS": PropPRA,
	"PTS+REB+BLK":             PropPRB,
	"PTS+BLK":                 PropPB,
	"STL+BLK":                 PropSB,
	"OREB":                    PropOffReb,
	"OFFENSIVEREBOUNDS":       PropOffReb,
	"DREB":                    PropDefReb,
	"DEFENSIVEREBOUNDS":       PropDefReb,
	"FGM":                     PropFGM,
	"FGMADE":                  PropFGM,
	"FGA":                     PropFGA,
	"FTM":                     PropFTM,
	"FTA":                     PropFTA,
	"2PM":                     Prop2PM,
	"2PA":                     Prop2PA,
	"3PA":                     Prop3PA,
	"MINUTES":                 PropMinutes,
	"DOUBLEDOUBLE":            PropDD,
	"TRIPLEDOUBLE":            PropTD,
	"1PPOINTS":                PropQ1Points,
	"Q1POINTS":                PropQ1Points,
	"1PREBOUNDS":              PropQ1Reb,
	"Q1REBOUNDS":              PropQ1Reb,
	"1PASSISTS":               PropQ1Ast,
	"Q1ASSISTS":               PropQ1Ast,
	"1P3PM":                   PropQ13PM,
	"Q13PM":                   PropQ13PM,
	"Q13PMADE":                PropQ13PM,
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	nonKeyRune   = regexp.MustCompile(`[^A-Z0-9+_]`)
	nonAlnumRune = regexp.MustCompile(`[^A-Z0-9]`)
)

// compact uppercases s and strips whitespace and punctuation other than '+' and '_'.
func compact(s string) string {
	up := spaceRun.ReplaceAllString(strings.ToUpper(s), "")
	return nonKeyRune.ReplaceAllString(up, "")
}

// NormalizePropKey returns the canonical prop key for a sheet key, using
// fallbackLabel when the sheet key is empty. Priority: short-code table,
// human-label table, compacted-label table, then the compacted input itself.
func NormalizePropKey(sheetKey, fallbackLabel string) string {
	raw := strings.TrimSpace(sheetKey)
	if raw == "" {
		raw = strings.TrimSpace(fallbackLabel)
	}
	if raw == "" {
		return ""
	}

	up := strings.ToUpper(raw)
	if k, ok := sheetCodes[up]; ok {
		return k
	}
	if k, ok := humanLabels[spaceRun.ReplaceAllString(up, " ")]; ok {
		return k
	}
	c := compact(raw)
	if k, ok := compactLabels[c]; ok {
		return k
	}
	return c
}

// shortLabels maps canonical keys to the short label shown on category buttons.
var shortLabels = map[string]string{
	// MAIN
	PropPoints:    "PTS",
	PropRebounds:  "REB",
	PropAssists:   "AST",
	PropSteals:    "STL",
	PropBlocks:    "BLK",
	PropTurnovers: "TO",
	PropOffReb:    "OREB",
	PropDefReb:    "DREB",
	// SHOTS
	PropFGM: "FGM",
	PropFGA: "FGA",
	Prop3PM: "3PM",
	Prop3PA: "3PA",
	Prop2PM: "2PM",
	Prop2PA: "2PA",
	PropFTM: "FTM",
	PropFTA: "FTA",
	// COMBOS
	PropPR:  "PR",
	PropPA:  "PA",
	PropRA:  "RA",
	PropPRA: "PRA",
	PropPB:  "PB",
	PropPRB: "PRB",
	PropSB:  "SB",
	// OTHER
	PropFouls:   "FOULS",
	PropMinutes: "MIN",
	PropDD:      "DD",
	PropTD:      "TD",
	// 1P
	PropQ1Points: "1P PTS",
	PropQ1Reb:    "1P REB",
	PropQ1Ast:    "1P AST",
	PropQ13PM:    "1P 3PM",
}

// ShortPropLabel returns the short display label for a canonical prop key.
// Unknown keys pass through; an empty key renders as a dash.
func ShortPropLabel(propKey string) string {
	k := strings.ToUpper(strings.TrimSpace(propKey))
	if k == "" {
		return "—"
	}
	if l, ok := shortLabels[k]; ok {
		return l
	}
	return k
}

// uiCategories maps category button labels (uppercase, whitespace removed)
// to canonical keys.
var uiCategories = map[string]string{
	// MAIN
	"PTS":               PropPoints,
	"POINTS":            PropPoints,
	"REB":               PropRebounds,
	"REBOUNDS":          PropRebounds,
	"AST":               PropAssists,
	"ASSISTS":           PropAssists,
	"STL":               PropSteals,
	"STEALS":            PropSteals,
	"BLK":               PropBlocks,
	"BLOCKS":            PropBlocks,
	"TO":                PropTurnovers,
	"TURNOVERS":         PropTurnovers,
	"OREB":              PropOffReb,
	"OFFENSIVEREBOUNDS": PropOffReb,
	"DREB":              PropDefReb,
	"DEFENSIVEREBOUNDS": PropDefReb,
	// SHOTS
	"2PM": Prop2PM,
	"2PA": Prop2PA,
	"3PM": Prop3PM,
	"3PA": Prop3PA,
	"FTM": PropFTM,
	"FTA": PropFTA,
	"FGM": PropFGM,
	"FGA": PropFGA,
	// COMBOS
	"PR":  PropPR,
	"PA":  PropPA,
	"RA":  PropRA,
	"PRA": PropPRA,
	"PB":  PropPB,
	"PRB": PropPRB,
	"SB":  PropSB,
	// OTHER
	"FOULS":        PropFouls,
	"FOULSD":       PropFouls,
	"MINUTES":      PropMinutes,
	"MIN":          PropMinutes,
	"DD":           PropDD,
	"DOUBLEDOUBLE": PropDD,
	"TD":           PropTD,
	"TRIPLEDOUBLE": PropTD,
	// 1P
	"1PPOINTS":   PropQ1Points,
	"1PPOINT":    PropQ1Points,
	"1PPTS":      PropQ1Points,
	"1PREBOUNDS": PropQ1Reb,
	"1PREBOUND":  PropQ1Reb,
	"1PREB":      PropQ1Reb,
	"1PASSISTS":  PropQ1Ast,
	"1PASSIST":   PropQ1Ast,
	"1PAST":      PropQ1Ast,
	"1P3PM":      PropQ13PM,
}

// UICategoryToPropKey maps a category button label to its canonical prop key.
func UICategoryToPropKey(label string) (string, bool) {
	t := spaceRun.ReplaceAllString(strings.ToUpper(strings.TrimSpace(label)), "")
	k, ok := uiCategories[t]
	return k, ok
}

// Tab is one group of category buttons.
type Tab struct {
	Name   string
	Labels []string
}

// CategoryTabs lists the category button groups in display order.
var CategoryTabs = []Tab{
	{Name: "MAIN", Labels: []string{"PTS", "REB", "OREB", "DREB", "AST", "TO", "STL", "BLK"}},
	{Name: "SHOTS", Labels: []string{"2PM", "2PA", "3PM", "3PA", "FTM", "FTA", "FGM", "FGA"}},
	{Name: "COMBOS", Labels: []string{"PRA", "PR", "PA", "RA", "PRB", "PB", "SB"}},
	{Name: "OTHER", Labels: []string{"FOULS", "FOULS D", "MINUTES", "DD", "TD"}},
	{Name: "1P", Labels: []string{"1P POINTS", "1P REBOUNDS", "1P ASSISTS", "1P 3PM"}},
}

// SupportedPropKeys returns every canonical key reachable from a category button.
func SupportedPropKeys() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tab := range CategoryTabs {
		for _, l := range tab.Labels {
			k, ok := UICategoryToPropKey(l)
			if !ok || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

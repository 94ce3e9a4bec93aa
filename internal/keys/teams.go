package keys

import (
	"path"
	"regexp"
	"strings"
)

// teamDisplay holds canonical team slugs and their display names.
var teamDisplay = map[string]string{
	"anadolu_efes":     "Anadolu Efes",
	"as_monaco":        "AS Monaco",
	"baskonia":         "Baskonia",
	"crvena_zvezda":    "Crvena Zvezda",
	"dubai":            "Dubai Basketball",
	"olimpia_milano":   "Olimpia Milano",
	"fc_barcelona":     "FC Barcelona",
	"fc_bayern":        "FC Bayern Munich",
	"fenerbahce":       "Fenerbahce",
	"hapoel_tel_aviv":  "Hapoel Tel Aviv",
	"asvel":            "LDLC ASVEL Villeurbanne",
	"maccabi_tel_aviv": "Maccabi Tel Aviv",
	"olympiacos":       "Olympiacos",
	"panathinaikos":    "Panathinaikos",
	"paris":            "Paris Basketball",
	"partizan":         "Partizan",
	"real_madrid":      "Real Madrid",
	"valencia":         "Valencia Basket",
	"virtus_bologna":   "Virtus Bologna",
	"zalgiris":         "Zalgiris Kaunas",
}

// teamCodes maps provider codes (uppercase) to canonical slugs.
var teamCodes = map[string]string{
	"EFS": "anadolu_efes",
	"FBB": "fenerbahce",
	"RMB": "real_madrid",
	"PBB": "paris",
	"OLY": "olympiacos",
	"PAO": "panathinaikos",
	"MTA": "maccabi_tel_aviv",
	"ZAL": "zalgiris",
	"KBA": "baskonia",
	"ASV": "asvel",
	"ASM": "as_monaco",
	"BAR": "fc_barcelona",
	"BAY": "fc_bayern",
	"CZV": "crvena_zvezda",
	"PAR": "partizan",
	"DUB": "dubai",
	"EA7": "olimpia_milano",
	"VBC": "valencia",
	"VIR": "virtus_bologna",
	"HTA": "hapoel_tel_aviv",
}

// teamAliases maps lowercase name variants to canonical slugs.
var teamAliases = map[string]string{
	"anadolu efes istanbul":              "anadolu_efes",
	"armani milan":                       "olimpia_milano",
	"as monaco":                          "as_monaco",
	"asvel villeurbanne":                 "asvel",
	"ax armani exchange milan":           "olimpia_milano",
	"baskonia vitoria gasteiz":           "baskonia",
	"bayern munich":                      "fc_bayern",
	"crvena zvezda belgrade":             "crvena_zvezda",
	"crvena zvezda meridianbet belgrade": "crvena_zvezda",
	"dubai":                              "dubai",
	"dubai b c":                          "dubai",
	"dubai b.c.":                         "dubai",
	"dubai basket":                       "dubai",
	"dubai basketball":                   "dubai",
	"dubai basketball club":              "dubai",
	"dubai bball":                        "dubai",
	"dubai bc":                           "dubai",
	"dubai club":                         "dubai",
	"ea7 emporio armani milan":           "olimpia_milano",
	"emporio armani milan":               "olimpia_milano",
	"fc bayern munich":                   "fc_bayern",
	"fenerbahce beko istanbul":           "fenerbahce",
	"fenerbahce istanbul":                "fenerbahce",
	"hapoel ibi tel aviv":                "hapoel_tel_aviv",
	"kosner baskonia vitoria gasteiz":    "baskonia",
	"ldlc asvel villeurbanne":            "asvel",
	"maccabi rapyd tel aviv":             "maccabi_tel_aviv",
	"maccabi tel aviv":                   "maccabi_tel_aviv",
	"olimpia milano":                     "olimpia_milano",
	"olympiacos piraeus":                 "olympiacos",
	"panathinaikos aktor athens":         "panathinaikos",
	"panathinaikos athens":               "panathinaikos",
	"paris basketball":                   "paris",
	"partizan mozzart bet belgrade":      "partizan",
	"saski baskonia":                     "baskonia",
	"valencia basket":                    "valencia",
	"virtus bologna":                     "virtus_bologna",
	"virtus segafredo bologna":           "virtus_bologna",
	"virtus segafredo":                   "virtus_bologna",
	"segafredo virtus bologna":           "virtus_bologna",
	"zalgiris kaunas":                    "zalgiris",
}

var (
	aliasSeparators = regexp.MustCompile(`[_\-]+`)
	aliasJunk       = regexp.MustCompile(`[^a-z0-9\s]`)
	logoPathSlug    = regexp.MustCompile(`(?i)/logos/euroleague/([^/]+)\.(png|svg|webp|jpg|jpeg)`)
	logoFileSlug    = regexp.MustCompile(`(?i)^([a-z0-9_\-]+)\.(png|svg|webp|jpg|jpeg)$`)
	fileExtension   = regexp.MustCompile(`(?i)\.[a-z0-9]+$`)
)

// ResolveTeamKey maps a raw team string to its canonical slug. It tries, in
// order: canonical slug, lowercase alias, uppercase provider code,
// punctuation-normalized alias, and snake_case canonical slug.
func ResolveTeamKey(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	if _, ok := teamDisplay[s]; ok {
		return s, true
	}

	lower := strings.ToLower(s)
	if k, ok := teamAliases[lower]; ok {
		return k, true
	}

	if k, ok := teamCodes[strings.ToUpper(s)]; ok {
		return k, true
	}

	norm := aliasSeparators.ReplaceAllString(lower, " ")
	norm = aliasJunk.ReplaceAllString(norm, " ")
	norm = strings.TrimSpace(spaceRun.ReplaceAllString(norm, " "))
	if k, ok := teamAliases[norm]; ok {
		return k, true
	}

	snake := strings.ReplaceAll(norm, " ", "_")
	if _, ok := teamDisplay[snake]; ok {
		return snake, true
	}

	return "", false
}

// TeamDisplayName returns the display name of a team, or the input when it
// cannot be resolved.
func TeamDisplayName(raw string) string {
	if k, ok := ResolveTeamKey(raw); ok {
		return teamDisplay[k]
	}
	return raw
}

// TeamLogoPath returns the static logo path of a team, or "" when unresolved.
func TeamLogoPath(raw string) string {
	if k, ok := ResolveTeamKey(raw); ok {
		return "/logos/euroleague/" + k + ".png"
	}
	return ""
}

// LogoSlug extracts the slug from a logo path or URL such as
// "/logos/euroleague/<slug>.png" or a bare "<slug>.svg". Returns "" otherwise.
func LogoSlug(logo string) string {
	if m := logoPathSlug.FindStringSubmatch(logo); m != nil {
		return m[1]
	}
	base := logo
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if m := logoFileSlug.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return ""
}

// TeamCodeFromLogo reads a team code from a logo file name:
// ".../BOS.png?v=2" yields "BOS".
func TeamCodeFromLogo(logo string) string {
	s := strings.TrimSpace(logo)
	if s == "" {
		return ""
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	base := fileExtension.ReplaceAllString(path.Base(s), "")
	if base == "." || base == "/" {
		return ""
	}
	return NormTeamCode(base)
}

// NormTeamCode uppercases s and keeps only letters and digits.
func NormTeamCode(s string) string {
	return nonAlnumRune.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
}

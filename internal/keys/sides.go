package keys

import (
	"strings"

	"github.com/rewired-gh/propboard/internal/models"
)

// NormalizeSide maps a side/selection string to OVER or UNDER. Any value
// containing "UNDER", or exactly "U", is UNDER. Everything else, including
// an empty value, is OVER: a line without a side is read as an over.
func NormalizeSide(raw string) models.Side {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "U" || strings.Contains(s, "UNDER") {
		return models.SideUnder
	}
	return models.SideOver
}

// bookmakers maps alphanumeric-only uppercase names to display names.
var bookmakers = map[string]string{
	"STOIXIMAN":    "Stoiximan",
	"NOVIBET":      "Novibet",
	"BWIN":         "Bwin",
	"PAMESTOIXIMA": "Pamestoixima",
	"OPAP":         "Pamestoixima",
}

// CanonicalBookmaker returns the display name of a known sportsbook,
// matching case and punctuation insensitively. Unknown names are returned unchanged.
func CanonicalBookmaker(raw string) string {
	n := nonAlnumRune.ReplaceAllString(strings.ToUpper(strings.TrimSpace(raw)), "")
	if n == "" {
		return raw
	}
	if b, ok := bookmakers[n]; ok {
		return b
	}
	return raw
}

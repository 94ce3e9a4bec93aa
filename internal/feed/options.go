package feed

import (
	"sort"
	"strings"

	"github.com/rewired-gh/propboard/internal/models"
)

// PlayerOption is one entry of the player filter.
type PlayerOption struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Team    string `json:"team"`
}

// Options derives the category and player filter choices from a collection,
// in order of first appearance.
func Options(lines []models.BetLine) ([]string, []PlayerOption) {
	cats := make([]string, 0)
	players := make([]PlayerOption, 0)
	seenCat := make(map[string]bool)
	seenPlayer := make(map[string]bool)

	for i := range lines {
		b := &lines[i]
		if cat := strings.TrimSpace(b.Prop.Label); cat != "" && !seenCat[cat] {
			seenCat[cat] = true
			cats = append(cats, cat)
		}

		raw := strings.TrimSpace(b.Player.Name)
		if raw == "" {
			continue
		}
		key := PlayerKey(b)
		if seenPlayer[key] {
			continue
		}
		seenPlayer[key] = true

		first, last := SplitName(raw)
		surname := last
		if surname == "" {
			surname = raw
		}
		players = append(players, PlayerOption{
			Key:     key,
			Name:    first,
			Surname: surname,
			Team:    lineTeam(b),
		})
	}
	return cats, players
}

// SplitName splits a backend player name into first and last name. It
// reads "LAST,FIRST", "FIRST LAST,FIRST" (the first name repeated after the
// comma) and plain "FIRST MIDDLE LAST".
func SplitName(raw string) (first, last string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ""
	}

	if left, right, ok := strings.Cut(s, ","); ok {
		leftParts := strings.Fields(left)
		rightParts := strings.Fields(right)
		rightFirst := ""
		if len(rightParts) > 0 {
			rightFirst = rightParts[0]
		}
		if len(leftParts) >= 2 && rightFirst != "" && strings.EqualFold(leftParts[0], rightFirst) {
			return rightFirst, strings.Join(leftParts[1:], " ")
		}
		if rightFirst == "" {
			rightFirst = strings.TrimSpace(right)
		}
		return rightFirst, strings.TrimSpace(left)
	}

	parts := strings.Fields(s)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// SearchPlayers returns the options of team (all teams when empty) whose
// surname starts with query, ordered by surname then first name.
func SearchPlayers(options []PlayerOption, team, query string) []PlayerOption {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]PlayerOption, 0, len(options))
	for _, p := range options {
		if team != "" && p.Team != team {
			continue
		}
		if q != "" && !strings.HasPrefix(strings.ToLower(p.Surname), q) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := strings.ToLower(out[i].Surname), strings.ToLower(out[j].Surname)
		if si != sj {
			return si < sj
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

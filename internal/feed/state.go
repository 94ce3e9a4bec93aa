// Package feed holds the view state of the bet-line feed and the pipeline
// that turns the full collection into the filtered, sorted view.
//
// State is a value. Every user action is a method returning a new State;
// slices are cloned so earlier states never observe later changes.
package feed

import (
	"slices"
	"strings"

	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
)

// Scope restricts the feed to MAIN lines, ALT lines or both.
type Scope string

const (
	ScopeMain Scope = "MAIN"
	ScopeAlt  Scope = "ALT"
	ScopeAll  Scope = "ALL"
)

// SortDir is the direction of the view ordering.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

const (
	DefaultMatch     = "upcoming"
	DefaultBookmaker = "all"
	DefaultOddsMin   = "1.40"
	DefaultOddsMax   = "3.00"
	DefaultLastN     = 15
)

// State is the full filter and sort state of the feed view.
type State struct {
	Match           string          `json:"match"`
	Bookmaker       string          `json:"bookmaker"`
	Scope           Scope           `json:"scope"`
	PropCategories  []string        `json:"prop_categories"`
	SelectedTeam    string          `json:"selected_team"`
	SelectedPlayers []string        `json:"selected_players"`
	OddsMin         string          `json:"odds_min"`
	OddsMax         string          `json:"odds_max"`
	SortKey         metrics.SortKey `json:"-"`
	SortDir         SortDir         `json:"sort_dir"`
	LastN           int             `json:"last_n"`
}

// DefaultState returns the state of a freshly opened feed.
func DefaultState() State {
	return State{
		Match:     DefaultMatch,
		Bookmaker: DefaultBookmaker,
		Scope:     ScopeAll,
		OddsMin:   DefaultOddsMin,
		OddsMax:   DefaultOddsMax,
		SortKey:   metrics.DefaultSortKey,
		SortDir:   SortDesc,
		LastN:     DefaultLastN,
	}
}

func (s State) clone() State {
	s.PropCategories = slices.Clone(s.PropCategories)
	s.SelectedPlayers = slices.Clone(s.SelectedPlayers)
	return s
}

// QueryKey identifies the server-side inputs of the state. A change of
// query key means the collection must be fetched again; every other field
// is applied locally.
func (s State) QueryKey() string {
	return strings.Join([]string{s.Match, s.Bookmaker, string(s.Scope)}, "|")
}

// WithMatch selects a match value; empty selects the default.
func (s State) WithMatch(match string) State {
	n := s.clone()
	n.Match = strings.TrimSpace(match)
	if n.Match == "" {
		n.Match = DefaultMatch
	}
	return n
}

// WithBookmaker selects a bookmaker; empty selects all bookmakers.
func (s State) WithBookmaker(bookmaker string) State {
	n := s.clone()
	n.Bookmaker = strings.TrimSpace(bookmaker)
	if n.Bookmaker == "" {
		n.Bookmaker = DefaultBookmaker
	}
	return n
}

// ParseScope reads a scope case-insensitively, defaulting to ALL.
func ParseScope(raw string) Scope {
	switch Scope(strings.ToUpper(strings.TrimSpace(raw))) {
	case ScopeMain:
		return ScopeMain
	case ScopeAlt:
		return ScopeAlt
	}
	return ScopeAll
}

// WithScope selects the tier scope.
func (s State) WithScope(scope string) State {
	n := s.clone()
	n.Scope = ParseScope(scope)
	return n
}

// WithSort selects the sort metric, keeping the direction.
func (s State) WithSort(key metrics.SortKey) State {
	n := s.clone()
	n.SortKey = key
	return n
}

// ToggleSortDir flips between ascending and descending order.
func (s State) ToggleSortDir() State {
	n := s.clone()
	if n.SortDir == SortAsc {
		n.SortDir = SortDesc
	} else {
		n.SortDir = SortAsc
	}
	return n
}

// WithSortDir sets the sort direction; anything but "asc" is descending.
func (s State) WithSortDir(dir string) State {
	n := s.clone()
	if SortDir(strings.ToLower(strings.TrimSpace(dir))) == SortAsc {
		n.SortDir = SortAsc
	} else {
		n.SortDir = SortDesc
	}
	return n
}

// WithOddsRange stores the raw odds bounds as typed. They are parsed when
// the pipeline runs, so a half-typed value never loses the user's input.
func (s State) WithOddsRange(lo, hi string) State {
	n := s.clone()
	n.OddsMin = lo
	n.OddsMax = hi
	return n
}

// ToggleCategory adds or removes a prop label from the category filter.
func (s State) ToggleCategory(label string) State {
	n := s.clone()
	label = strings.TrimSpace(label)
	if label == "" {
		return n
	}
	if i := slices.Index(n.PropCategories, label); i >= 0 {
		n.PropCategories = slices.Delete(n.PropCategories, i, i+1)
	} else {
		n.PropCategories = append(n.PropCategories, label)
	}
	return n
}

// ClearCategories removes the category filter.
func (s State) ClearCategories() State {
	n := s.clone()
	n.PropCategories = nil
	return n
}

// WithTeam selects a team key, dropping selected players of other teams.
// An empty team clears the team filter and keeps the players.
func (s State) WithTeam(teamKey string) State {
	n := s.clone()
	n.SelectedTeam = strings.TrimSpace(teamKey)
	if n.SelectedTeam == "" {
		return n
	}
	prefix := n.SelectedTeam + playerKeySep
	n.SelectedPlayers = slices.DeleteFunc(n.SelectedPlayers, func(k string) bool {
		return !strings.HasPrefix(k, prefix)
	})
	return n
}

// TogglePlayer adds or removes a player key (see PlayerKey).
func (s State) TogglePlayer(key string) State {
	n := s.clone()
	if key == "" {
		return n
	}
	if i := slices.Index(n.SelectedPlayers, key); i >= 0 {
		n.SelectedPlayers = slices.Delete(n.SelectedPlayers, i, i+1)
	} else {
		n.SelectedPlayers = append(n.SelectedPlayers, key)
	}
	return n
}

// ClearPlayers removes both the player and team filters.
func (s State) ClearPlayers() State {
	n := s.clone()
	n.SelectedPlayers = nil
	n.SelectedTeam = ""
	return n
}

// WithLastN selects the detail window. Unsupported windows are ignored.
func (s State) WithLastN(lastN int) State {
	n := s.clone()
	if models.MaskFor(lastN) != 0 {
		n.LastN = lastN
	}
	return n
}

package models

import (
	"errors"
	"math"
)

// Venue classifies a game from the player's side: "vs" at home, "at" away.
type Venue string

const (
	VenueHome Venue = "vs"
	VenueAway Venue = "at"
)

// Game is one historical game outcome attached to a bet line or returned by
// the player history endpoint.
type Game struct {
	Date    string         `json:"date,omitempty"`
	Opp     string         `json:"opp,omitempty"`
	HA      string         `json:"ha,omitempty"` // raw home/away marker
	Stat    *float64       `json:"stat,omitempty"`
	Minutes *float64       `json:"minutes,omitempty"`
	Round   string         `json:"round,omitempty"`
	OppLogo string         `json:"opp_logo,omitempty"`
	Final   map[string]any `json:"final,omitempty"` // box score keyed by prop key
}

// Validate checks that all game fields are valid.
func (g *Game) Validate() error {
	if g.Stat != nil && (math.IsNaN(*g.Stat) || math.IsInf(*g.Stat, 0)) {
		return errors.New("game stat must be a finite number")
	}
	if g.Minutes != nil && (math.IsNaN(*g.Minutes) || *g.Minutes < 0) {
		return errors.New("game minutes must not be negative")
	}
	return nil
}

// GamePoint is one game's value prepared for charting. Points are derived
// per view from a line's games plus the active projection settings and are
// never persisted.
type GamePoint struct {
	Stat       float64  `json:"stat"`
	RawStat    float64  `json:"raw_stat"`
	Minutes    *float64 `json:"minutes"`     // projected when projection is on
	MinutesRaw *float64 `json:"minutes_raw"` // as recorded
	Date       string   `json:"date,omitempty"`
	Opp        string   `json:"opp,omitempty"`
	HA         string   `json:"ha,omitempty"`
	Venue      Venue    `json:"av"`
	Round      string   `json:"round,omitempty"`
	RoundNum   int      `json:"round_num,omitempty"` // 0 when no ordinal could be parsed
	OppLogo    string   `json:"opp_logo,omitempty"`
	Index      int      `json:"-"` // position in source order
}

// MatchOption is one entry of the upcoming matches selector.
type MatchOption struct {
	Label string   `json:"label"`
	Value string   `json:"value"`
	Codes []string `json:"codes"`
}

// Validate checks that all match option fields are valid.
func (m *MatchOption) Validate() error {
	if m.Value == "" {
		return errors.New("match value must not be empty")
	}
	if len(m.Codes) != 0 && len(m.Codes) != 2 {
		return errors.New("match codes must hold home and away")
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

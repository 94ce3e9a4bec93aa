// Package models defines the core domain entities for the propboard application.
// These models represent offered player-prop bet lines, the historical games behind
// them, and the transient chart points derived from those games.
//
// Terminology (matching the betting backend's own naming):
//   - Bet line: one offered wager on one player/prop/side/line from one bookmaker.
//   - Prop key: canonical short code of a statistical category (e.g. TR = total rebounds).
//   - Tier: MAIN (primary line) or ALT (alternate line).
package models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Side is the direction of a wager relative to its line.
type Side string

const (
	SideOver  Side = "OVER"
	SideUnder Side = "UNDER"
)

// Tier classifies a prop offering as primary or alternate.
type Tier string

const (
	TierMain Tier = "MAIN"
	TierAlt  Tier = "ALT"
)

// Windows lists the trailing game windows the feed reports metrics for.
var Windows = []int{5, 10, 15, 20}

// WindowMask records which trailing windows carry a backend-supplied value.
type WindowMask uint8

// MaskFor returns the mask bit of window n, or 0 for unsupported windows.
func MaskFor(n int) WindowMask {
	switch n {
	case 5:
		return 1
	case 10:
		return 2
	case 15:
		return 4
	case 20:
		return 8
	}
	return 0
}

// Player identifies the athlete a line is offered on.
type Player struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Team string `json:"team"`
	Pos  string `json:"pos,omitempty"`
}

// Prop describes the statistical category of a line.
type Prop struct {
	Key      string `json:"sheet_key"` // canonical prop key
	Label    string `json:"label"`
	Tier     Tier   `json:"tier"`
	BetType  string `json:"bet_type,omitempty"`
	UIName   string `json:"ui_name,omitempty"`
	RawSheet string `json:"raw_sheet_key,omitempty"`
}

// HitRates holds hit-rate percentages (0-100) per trailing window.
type HitRates struct {
	L5       float64    `json:"L5"`
	L10      float64    `json:"L10"`
	L15      float64    `json:"L15"`
	L20      float64    `json:"L20"`
	Supplied WindowMask `json:"-"`
}

// Get returns the value for window n and whether the backend supplied it.
func (h HitRates) Get(n int) (float64, bool) {
	var v float64
	switch n {
	case 5:
		v = h.L5
	case 10:
		v = h.L10
	case 15:
		v = h.L15
	case 20:
		v = h.L20
	default:
		return 0, false
	}
	return v, h.Supplied&MaskFor(n) != 0
}

// Set stores a supplied value for window n. Unsupported windows are ignored.
func (h *HitRates) Set(n int, v float64) {
	switch n {
	case 5:
		h.L5 = v
	case 10:
		h.L10 = v
	case 15:
		h.L15 = v
	case 20:
		h.L20 = v
	default:
		return
	}
	h.Supplied |= MaskFor(n)
}

// MarshalJSON writes null for windows the backend did not supply.
func (h HitRates) MarshalJSON() ([]byte, error) {
	return marshalWindows("L", h.Get)
}

// UnmarshalJSON marks every non-null window as supplied.
func (h *HitRates) UnmarshalJSON(data []byte) error {
	*h = HitRates{}
	return unmarshalWindows(data, "L", h.Set)
}

// Edges holds edge figures (percentage points) per trailing window.
type Edges struct {
	VL5      float64    `json:"vL5"`
	VL10     float64    `json:"vL10"`
	VL15     float64    `json:"vL15"`
	VL20     float64    `json:"vL20"`
	Supplied WindowMask `json:"-"`
}

// Get returns the value for window n and whether the backend supplied it.
func (e Edges) Get(n int) (float64, bool) {
	var v float64
	switch n {
	case 5:
		v = e.VL5
	case 10:
		v = e.VL10
	case 15:
		v = e.VL15
	case 20:
		v = e.VL20
	default:
		return 0, false
	}
	return v, e.Supplied&MaskFor(n) != 0
}

// Set stores a supplied value for window n. Unsupported windows are ignored.
func (e *Edges) Set(n int, v float64) {
	switch n {
	case 5:
		e.VL5 = v
	case 10:
		e.VL10 = v
	case 15:
		e.VL15 = v
	case 20:
		e.VL20 = v
	default:
		return
	}
	e.Supplied |= MaskFor(n)
}

// MarshalJSON writes null for windows the backend did not supply.
func (e Edges) MarshalJSON() ([]byte, error) {
	return marshalWindows("vL", e.Get)
}

// UnmarshalJSON marks every non-null window as supplied.
func (e *Edges) UnmarshalJSON(data []byte) error {
	*e = Edges{}
	return unmarshalWindows(data, "vL", e.Set)
}

func marshalWindows(prefix string, get func(int) (float64, bool)) ([]byte, error) {
	out := make(map[string]*float64, len(Windows))
	for _, n := range Windows {
		var p *float64
		if v, ok := get(n); ok {
			p = &v
		}
		out[prefix+strconv.Itoa(n)] = p
	}
	return json.Marshal(out)
}

func unmarshalWindows(data []byte, prefix string, set func(int, float64)) error {
	var in map[string]*float64
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for _, n := range Windows {
		if v := in[prefix+strconv.Itoa(n)]; v != nil {
			set(n, *v)
		}
	}
	return nil
}

// BetLine is one offered bet on one player/prop/side/line from one bookmaker.
// Lines are created on feed fetch and never mutated in place; views derive
// new slices instead.
type BetLine struct {
	ID        string   `json:"id"`
	Player    Player   `json:"player"`
	Prop      Prop     `json:"prop"`
	Side      Side     `json:"side"`
	Line      float64  `json:"line"`
	Odds      float64  `json:"odds"` // 0 when the feed carried no readable odds
	Hit       HitRates `json:"hit"`
	Value     Edges    `json:"value"`
	Games     []Game   `json:"games"`
	Bookmaker string   `json:"bookmaker"`
	Match     string   `json:"canonical_match,omitempty"`
	TeamKey   string   `json:"team_key,omitempty"` // canonical team slug, empty when unresolved
	TeamCode  string   `json:"team_code,omitempty"`
	TeamLogo  string   `json:"team_logo,omitempty"`
	Venue     string   `json:"venue,omitempty"` // raw home/away hint from the feed
}

// PlayerKey identifies the player across bookmakers: "id:<id>" when the feed
// carries a player id, otherwise "name:<UPPERCASE NAME>". Empty when neither exists.
func (b *BetLine) PlayerKey() string {
	if id := strings.TrimSpace(b.Player.ID); id != "" {
		return "id:" + id
	}
	if name := strings.TrimSpace(b.Player.Name); name != "" {
		return "name:" + strings.ToUpper(name)
	}
	return ""
}

// HasOdds reports whether the line carries usable decimal odds.
func (b *BetLine) HasOdds() bool {
	return b.Odds > 0 && !math.IsInf(b.Odds, 0) && !math.IsNaN(b.Odds)
}

// IsMain reports whether the line is a primary (MAIN tier) offering.
func (b *BetLine) IsMain() bool {
	return b.Prop.Tier != TierAlt
}

// Validate checks that all bet line fields are valid.
func (b *BetLine) Validate() error {
	if b.ID == "" {
		return errors.New("bet line ID must not be empty")
	}
	if b.Player.Name == "" && b.Player.ID == "" {
		return errors.New("player name or ID must not be empty")
	}
	if b.Prop.Key == "" {
		return errors.New("prop key must not be empty")
	}
	if b.Side != SideOver && b.Side != SideUnder {
		return errors.New("side must be OVER or UNDER")
	}
	if b.Prop.Tier != TierMain && b.Prop.Tier != TierAlt {
		return errors.New("tier must be MAIN or ALT")
	}
	if math.IsNaN(b.Line) || math.IsInf(b.Line, 0) {
		return errors.New("line must be a finite number")
	}
	if b.Odds != 0 && b.Odds < 1.0 {
		return errors.New("odds must be at least 1.0")
	}
	for _, g := range b.Games {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

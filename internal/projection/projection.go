// Package projection turns a line's game history into chart points and
// rescales historical stats to a hypothetical minutes played.
package projection

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Direction is the sign of a minutes delta.
type Direction string

const (
	More Direction = "more"
	Less Direction = "less"
)

// ParseDirection reads "less" case-insensitively; anything else is More.
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), string(Less)) {
		return Less
	}
	return More
}

// minProjectedMinutes keeps projected minutes positive.
const minProjectedMinutes = 0.1

// Project rescales stat from minutes to minutes ± delta at the same per-minute
// rate. The returned minutes are floored at 0.1 and the stat at 0. Without
// usable minutes the stat passes through unchanged; minutes of zero still
// move by delta but the stat is not rescaled.
func Project(stat, minutes float64, hasMinutes bool, delta float64, dir Direction) (float64, float64) {
	if !hasMinutes || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return stat, minutes
	}
	if dir == Less {
		delta = -delta
	}
	projected := math.Max(minProjectedMinutes, minutes+delta)
	if minutes == 0 {
		return stat, projected
	}
	return math.Max(0, stat/minutes*projected), projected
}

// Boolean stats such as double-doubles are recorded as sentinel strings.
const (
	sentinelTrue  = "#TRUE#"
	sentinelFalse = "#FALSE#"
)

// StatForProp reads the box-score value of key from a game's final map.
// Missing or unreadable values are 0.
func StatForProp(final map[string]any, key string) float64 {
	raw, ok := final[strings.ToUpper(strings.TrimSpace(key))]
	if !ok || raw == nil {
		return 0
	}
	if s, ok := raw.(string); ok {
		switch strings.TrimSpace(s) {
		case sentinelTrue:
			return 1
		case sentinelFalse:
			return 0
		}
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NiceMax rounds v up to 1, 2, 5 or 10 times a power of ten, for a chart
// axis ceiling. Non-positive values give 10.
func NiceMax(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 10
	}
	p := math.Pow(10, math.Floor(math.Log10(v)))
	n := v / p
	var m float64
	switch {
	case n <= 1:
		m = 1
	case n <= 2:
		m = 2
	case n <= 5:
		m = 5
	default:
		m = 10
	}
	return m * p
}

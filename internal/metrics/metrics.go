// Package metrics derives hit rate, edge and expected value for a bet line
// over a trailing window of games.
//
//	hit rate = hits / games with a readable stat            (0-100)
//	implied  = 1 / odds                                     (0 when odds <= 0)
//	edge     = (hit/100 - implied) × 100                    (percentage points)
//	EV       = (hit/100 × odds - 1) × 100                   (percent)
//
// An OVER hits when stat >= line, an UNDER when stat < line. Every caller
// that scores a game against a line goes through Hits.
//
// Backend-supplied window values take precedence over local computation.
package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rewired-gh/propboard/internal/models"
)

// Hits reports whether a stat satisfies side against line.
func Hits(side models.Side, stat, line float64) bool {
	if side == models.SideUnder {
		return stat < line
	}
	return stat >= line
}

// LastN returns the trailing n games (source order is oldest first).
func LastN(games []models.Game, n int) []models.Game {
	if n <= 0 {
		return nil
	}
	if n >= len(games) {
		return games
	}
	return games[len(games)-n:]
}

// ComputeHitRate computes the hit rate of the last n games from the line's
// games alone. Games without a readable stat are left out of the
// denominator; no qualifying game gives 0.
func ComputeHitRate(b *models.BetLine, n int) float64 {
	if math.IsNaN(b.Line) || math.IsInf(b.Line, 0) {
		return 0
	}
	readable, hits := 0, 0
	for _, g := range LastN(b.Games, n) {
		if g.Stat == nil || math.IsNaN(*g.Stat) || math.IsInf(*g.Stat, 0) {
			continue
		}
		readable++
		if Hits(b.Side, *g.Stat, b.Line) {
			hits++
		}
	}
	if readable == 0 {
		return 0
	}
	return float64(hits) / float64(readable) * 100
}

// ImpliedProbability returns 1/odds, or 0 for odds <= 0.
func ImpliedProbability(odds float64) float64 {
	if odds <= 0 || math.IsNaN(odds) || math.IsInf(odds, 0) {
		return 0
	}
	return 1 / odds
}

// Edge returns the edge in percentage points of a hit rate (0-100) over the
// bookmaker's implied probability.
func Edge(hitPct, odds float64) float64 {
	return (hitPct/100 - ImpliedProbability(odds)) * 100
}

// ExpectedValue returns the expected return in percent of a unit stake.
func ExpectedValue(hitPct, odds float64) float64 {
	if odds <= 0 || math.IsNaN(odds) || math.IsInf(odds, 0) {
		odds = 0
	}
	return (hitPct/100*odds - 1) * 100
}

// NormalizePct scales a 0-1 probability to a percentage; values above 1
// are already percentages.
func NormalizePct(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// HitFor returns the hit rate for window n, preferring the backend value.
func HitFor(b *models.BetLine, n int) float64 {
	if v, ok := b.Hit.Get(n); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return clampPct(NormalizePct(v))
	}
	return ComputeHitRate(b, n)
}

// EdgeFor returns the edge for window n, preferring the backend value.
// Backend edges are already in percentage points and are not rescaled.
func EdgeFor(b *models.BetLine, n int) float64 {
	if v, ok := b.Value.Get(n); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return v
	}
	return Edge(HitFor(b, n), b.Odds)
}

// SortKey selects the metric a view is ordered by.
type SortKey struct {
	Window int
	Edge   bool
}

// DefaultSortKey is the L15 hit rate.
var DefaultSortKey = SortKey{Window: 15}

// ParseSortKey parses "L5".."L20" (hit rate) and "vL5".."vL20" (edge).
func ParseSortKey(s string) (SortKey, error) {
	raw := strings.TrimSpace(s)
	var k SortKey
	if strings.HasPrefix(raw, "v") || strings.HasPrefix(raw, "V") {
		k.Edge = true
		raw = raw[1:]
	}
	if !strings.HasPrefix(strings.ToUpper(raw), "L") {
		return SortKey{}, fmt.Errorf("invalid sort key: %q", s)
	}
	n, err := strconv.Atoi(raw[1:])
	if err != nil || models.MaskFor(n) == 0 {
		return SortKey{}, fmt.Errorf("invalid sort key window: %q", s)
	}
	k.Window = n
	return k, nil
}

// String renders the key in the form ParseSortKey accepts.
func (k SortKey) String() string {
	if k.Edge {
		return "vL" + strconv.Itoa(k.Window)
	}
	return "L" + strconv.Itoa(k.Window)
}

// Value returns the metric of b selected by k.
func (k SortKey) Value(b *models.BetLine) float64 {
	if k.Edge {
		return EdgeFor(b, k.Window)
	}
	return HitFor(b, k.Window)
}

// Summary bundles the metrics of one line for one window.
type Summary struct {
	Window        int     `json:"window"`
	HitRate       float64 `json:"hit_rate"`
	Implied       float64 `json:"implied"`
	Edge          float64 `json:"edge"`
	ExpectedValue float64 `json:"ev"`
	Tone          string  `json:"tone"`
}

// Summarize computes the Summary of b over window n.
func Summarize(b *models.BetLine, n int) Summary {
	hit := HitFor(b, n)
	edge := EdgeFor(b, n)
	return Summary{
		Window:        n,
		HitRate:       hit,
		Implied:       ImpliedProbability(b.Odds) * 100,
		Edge:          edge,
		ExpectedValue: ExpectedValue(hit, b.Odds),
		Tone:          ValueTone(edge),
	}
}

// ValueTone classifies an edge as "pos" (>= 3), "neg" (<= -3) or "neu".
func ValueTone(edge float64) string {
	switch {
	case edge >= 3:
		return "pos"
	case edge <= -3:
		return "neg"
	default:
		return "neu"
	}
}

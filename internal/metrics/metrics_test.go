package metrics

import (
	"math"
	"testing"

	"github.com/rewired-gh/propboard/internal/models"
)

func gamesWithStats(stats ...float64) []models.Game {
	games := make([]models.Game, len(stats))
	for i, s := range stats {
		games[i] = models.Game{Stat: models.Float(s)}
	}
	return games
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEdgeScenario(t *testing.T) {
	b := &models.BetLine{
		Side:  models.SideOver,
		Line:  10.5,
		Odds:  2.00,
		Games: gamesWithStats(12, 9, 11, 8, 14),
	}

	hit := ComputeHitRate(b, 5)
	if !approx(hit, 60) {
		t.Errorf("Expected hit rate 60, got %v", hit)
	}
	if implied := ImpliedProbability(b.Odds); !approx(implied, 0.5) {
		t.Errorf("Expected implied 0.5, got %v", implied)
	}
	if edge := Edge(hit, b.Odds); !approx(edge, 10) {
		t.Errorf("Expected edge +10, got %v", edge)
	}
	if ev := ExpectedValue(hit, b.Odds); !approx(ev, 20) {
		t.Errorf("Expected EV +20, got %v", ev)
	}
}

func TestHitsBoundary(t *testing.T) {
	tests := []struct {
		side models.Side
		stat float64
		line float64
		want bool
	}{
		{models.SideOver, 10, 10, true},
		{models.SideOver, 9.9, 10, false},
		{models.SideUnder, 10, 10, false},
		{models.SideUnder, 9.5, 10, true},
	}
	for _, tt := range tests {
		if got := Hits(tt.side, tt.stat, tt.line); got != tt.want {
			t.Errorf("Hits(%s, %v, %v) = %v, expected %v", tt.side, tt.stat, tt.line, got, tt.want)
		}
	}
}

func TestComputeHitRateWindowAndUnreadable(t *testing.T) {
	b := &models.BetLine{
		Side: models.SideUnder,
		Line: 5.5,
		Games: []models.Game{
			{Stat: models.Float(1)}, // outside window
			{Stat: models.Float(4)},
			{},                      // unreadable
			{Stat: models.Float(8)},
		},
	}
	// Last 3: {4, nil, 8} -> readable 2, hits 1
	if got := ComputeHitRate(b, 3); !approx(got, 50) {
		t.Errorf("Expected 50, got %v", got)
	}
	// Window larger than history uses everything: {1,4,8} -> 2/3
	if got := ComputeHitRate(b, 20); !approx(got, 200.0/3) {
		t.Errorf("Expected 66.67, got %v", got)
	}
}

func TestZeroGames(t *testing.T) {
	b := &models.BetLine{Side: models.SideOver, Line: 3.5, Odds: 2.5}
	for _, n := range models.Windows {
		if got := HitFor(b, n); got != 0 {
			t.Errorf("Expected 0 hit rate for window %d, got %v", n, got)
		}
	}
	if got := EdgeFor(b, 5); !approx(got, -40) {
		t.Errorf("Expected edge -implied*100 = -40, got %v", got)
	}
	if got := ExpectedValue(0, b.Odds); !approx(got, -100) {
		t.Errorf("Expected EV -100, got %v", got)
	}
}

func TestImpliedProbabilityNonPositive(t *testing.T) {
	for _, odds := range []float64{0, -1.5, math.NaN(), math.Inf(1)} {
		if got := ImpliedProbability(odds); got != 0 {
			t.Errorf("ImpliedProbability(%v) = %v, expected 0", odds, got)
		}
	}
}

func TestBackendPrecedence(t *testing.T) {
	b := &models.BetLine{
		Side:  models.SideOver,
		Line:  10.5,
		Odds:  2.0,
		Games: gamesWithStats(12, 9, 11, 8, 14),
	}
	b.Hit.Set(5, 0.8)  // fraction
	b.Hit.Set(10, 45)  // already a percentage
	b.Hit.Set(15, 140) // out of range
	b.Value.Set(5, -2.5)

	if got := HitFor(b, 5); !approx(got, 80) {
		t.Errorf("Expected scaled backend hit 80, got %v", got)
	}
	if got := HitFor(b, 10); !approx(got, 45) {
		t.Errorf("Expected backend hit 45, got %v", got)
	}
	if got := HitFor(b, 15); got != 100 {
		t.Errorf("Expected clamped hit 100, got %v", got)
	}
	if got := HitFor(b, 20); !approx(got, 60) {
		t.Errorf("Expected computed hit 60 for missing window, got %v", got)
	}
	if got := EdgeFor(b, 5); got != -2.5 {
		t.Errorf("Expected backend edge -2.5, got %v", got)
	}
	if got := EdgeFor(b, 10); !approx(got, -5) {
		t.Errorf("Expected edge from backend hit 45 vs 50 implied = -5, got %v", got)
	}
}

func TestHitRateBounds(t *testing.T) {
	lines := []*models.BetLine{
		{Side: models.SideOver, Line: 0, Games: gamesWithStats(0, 1, 2)},
		{Side: models.SideUnder, Line: 100, Games: gamesWithStats(5, 5)},
		{Side: models.SideOver, Line: math.NaN(), Games: gamesWithStats(5)},
	}
	for i, b := range lines {
		for _, n := range models.Windows {
			got := HitFor(b, n)
			if got < 0 || got > 100 || math.IsNaN(got) {
				t.Errorf("line %d window %d: hit rate %v out of [0,100]", i, n, got)
			}
		}
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{"L5", SortKey{Window: 5}, false},
		{"L20", SortKey{Window: 20}, false},
		{"vL15", SortKey{Window: 15, Edge: true}, false},
		{"VL10", SortKey{Window: 10, Edge: true}, false},
		{"L7", SortKey{}, true},
		{"EDGE", SortKey{}, true},
		{"", SortKey{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortKey(%q) = %+v, expected %+v", tt.in, got, tt.want)
		}
	}

	k, _ := ParseSortKey("VL10")
	if k.String() != "vL10" {
		t.Errorf("Expected canonical vL10, got %s", k.String())
	}
	if DefaultSortKey.String() != "L15" {
		t.Errorf("Expected default L15, got %s", DefaultSortKey.String())
	}
}

func TestSummarizeAndTone(t *testing.T) {
	b := &models.BetLine{
		Side:  models.SideOver,
		Line:  10.5,
		Odds:  2.0,
		Games: gamesWithStats(12, 9, 11, 8, 14),
	}
	s := Summarize(b, 5)
	if !approx(s.HitRate, 60) || !approx(s.Implied, 50) || !approx(s.Edge, 10) || !approx(s.ExpectedValue, 20) {
		t.Errorf("Unexpected summary %+v", s)
	}
	if s.Tone != "pos" {
		t.Errorf("Expected pos tone, got %s", s.Tone)
	}

	tones := map[float64]string{3: "pos", 2.9: "neu", -2.9: "neu", -3: "neg"}
	for edge, want := range tones {
		if got := ValueTone(edge); got != want {
			t.Errorf("ValueTone(%v) = %s, expected %s", edge, got, want)
		}
	}
}

// Package monitor ranks bet lines for the watch loop and decides which of
// them are worth a notification.
//
// Each cycle the filtered view is reduced to one line per wager (the best
// price across bookmakers), scored by its edge over the configured window,
// and the top-K lines clearing the minimum edge are returned. Lines already
// notified within the cooldown are suppressed unless their odds improved.
package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/rewired-gh/propboard/internal/storage"
)

// minOddsMove suppresses floating-point noise in odds comparisons.
const minOddsMove = 0.005

// Movement is an odds change of one line between two fetches.
type Movement struct {
	LineID  string
	OldOdds float64
	NewOdds float64
}

// Direction is "up" when the price lengthened and "down" when it shortened.
func (m Movement) Direction() string {
	if m.NewOdds > m.OldOdds {
		return "up"
	}
	return "down"
}

// Pick is one ranked line with its metrics.
type Pick struct {
	Line     models.BetLine
	Summary  metrics.Summary
	Movement *Movement
}

// notifiedRecord tracks a previously sent line for cooldown deduplication.
type notifiedRecord struct {
	Odds   float64
	Edge   float64
	SentAt time.Time
}

// Monitor ranks lines and remembers what was sent.
type Monitor struct {
	storage  *storage.Storage
	mu       sync.Mutex
	notified map[string]notifiedRecord // key = line ID
}

// New creates a new Monitor. A nil storage keeps notification records in
// memory only.
func New(s *storage.Storage) *Monitor {
	return &Monitor{
		storage:  s,
		notified: make(map[string]notifiedRecord),
	}
}

// DetectMovements compares the odds of lines present in both collections.
// Moves below half a tick are ignored. The result follows curr's order.
func DetectMovements(prev, curr []models.BetLine) []Movement {
	old := make(map[string]float64, len(prev))
	for i := range prev {
		if prev[i].HasOdds() {
			old[prev[i].ID] = prev[i].Odds
		}
	}

	movements := make([]Movement, 0)
	maxMove := 0.0
	for i := range curr {
		b := &curr[i]
		was, ok := old[b.ID]
		if !ok || !b.HasOdds() {
			continue
		}
		move := math.Abs(b.Odds - was)
		if move > maxMove {
			maxMove = move
		}
		if move >= minOddsMove {
			movements = append(movements, Movement{LineID: b.ID, OldOdds: was, NewOdds: b.Odds})
		}
	}

	logger.Debug("DetectMovements: previous=%d current=%d moved=%d max_move=%.3f",
		len(prev), len(curr), len(movements), maxMove)
	return movements
}

func wagerKey(b *models.BetLine) string {
	return b.PlayerKey() + "|" + b.Prop.Key + "|" + string(b.Side) + "|" + strconv.FormatFloat(b.Line, 'f', -1, 64)
}

// bestPerWager keeps the best-priced line of each wager, in order of first
// appearance. Ties keep the earlier line.
func bestPerWager(lines []models.BetLine) []models.BetLine {
	index := make(map[string]int)
	out := make([]models.BetLine, 0, len(lines))
	for i := range lines {
		b := &lines[i]
		if b.PlayerKey() == "" {
			out = append(out, *b)
			continue
		}
		k := wagerKey(b)
		j, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, *b)
			continue
		}
		if b.HasOdds() && (!out[j].HasOdds() || b.Odds > out[j].Odds) {
			out[j] = *b
		}
	}
	return out
}

// Rank scores lines by their edge over window and returns at most k picks
// with an edge of at least minEdge, best first. Ties are broken by line ID
// descending for determinism. Lines without odds are skipped. movements
// may be nil. Returns an empty (non-nil) slice when nothing qualifies.
func (m *Monitor) Rank(lines []models.BetLine, movements []Movement, window int, minEdge float64, k int) []Pick {
	moved := make(map[string]Movement, len(movements))
	for _, mv := range movements {
		moved[mv.LineID] = mv
	}

	picks := make([]Pick, 0)
	for _, b := range bestPerWager(lines) {
		if !b.HasOdds() {
			continue
		}
		s := metrics.Summarize(&b, window)
		if s.Edge < minEdge {
			continue
		}
		p := Pick{Line: b, Summary: s}
		if mv, ok := moved[b.ID]; ok {
			mv := mv
			p.Movement = &mv
		}
		picks = append(picks, p)
	}

	sort.Slice(picks, func(i, j int) bool {
		if picks[i].Summary.Edge != picks[j].Summary.Edge {
			return picks[i].Summary.Edge > picks[j].Summary.Edge
		}
		return picks[i].Line.ID > picks[j].Line.ID
	})

	if k <= 0 {
		return []Pick{}
	}
	if k < len(picks) {
		picks = picks[:k]
	}
	return picks
}

// FilterRecentlySent removes picks notified within cooldown, unless their
// odds have improved since. Returns a non-nil slice.
func (m *Monitor) FilterRecentlySent(picks []Pick, cooldown time.Duration) []Pick {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	result := make([]Pick, 0, len(picks))
	for _, p := range picks {
		rec, exists := m.notified[p.Line.ID]
		if exists && now.Sub(rec.SentAt) < cooldown && p.Line.Odds < rec.Odds+minOddsMove {
			continue
		}
		result = append(result, p)
	}
	return result
}

// RecordNotified records picks as notified now. Call it after a successful
// send. Records are persisted when the monitor has storage.
func (m *Monitor) RecordNotified(ctx context.Context, picks []Pick) error {
	now := time.Now()
	m.mu.Lock()
	for _, p := range picks {
		m.notified[p.Line.ID] = notifiedRecord{Odds: p.Line.Odds, Edge: p.Summary.Edge, SentAt: now}
	}
	m.mu.Unlock()

	if m.storage == nil {
		return nil
	}
	for _, p := range picks {
		n := storage.Notification{LineID: p.Line.ID, Odds: p.Line.Odds, Edge: p.Summary.Edge, SentAt: now}
		if err := m.storage.RecordNotification(ctx, n); err != nil {
			return fmt.Errorf("failed to persist notification for %s: %w", p.Line.ID, err)
		}
	}
	return nil
}

// RestoreNotified loads the records sent within cooldown from storage and
// prunes older ones.
func (m *Monitor) RestoreNotified(ctx context.Context, cooldown time.Duration) error {
	if m.storage == nil {
		return nil
	}
	cutoff := time.Now().Add(-cooldown)
	if err := m.storage.PruneNotifications(ctx, cutoff); err != nil {
		return err
	}
	records, err := m.storage.Notifications(ctx, cutoff)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range records {
		m.notified[n.LineID] = notifiedRecord{Odds: n.Odds, Edge: n.Edge, SentAt: n.SentAt}
	}
	logger.Debug("Restored %d notification records", len(records))
	return nil
}

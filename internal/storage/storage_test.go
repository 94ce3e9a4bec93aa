package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rewired-gh/propboard/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:", 0755)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleLines() []models.BetLine {
	a := models.BetLine{
		ID:        "a",
		Player:    models.Player{ID: "77", Name: "VEZENKOV, SASHA"},
		Prop:      models.Prop{Key: "POINTS", Label: "Points", Tier: models.TierMain},
		Side:      models.SideOver,
		Line:      15.5,
		Odds:      1.85,
		Bookmaker: "Stoiximan",
		Games:     []models.Game{{Date: "2025-01-02", Stat: models.Float(18), Minutes: models.Float(27.5)}},
	}
	a.Hit.Set(5, 80)
	a.Value.Set(10, 3.5)

	b := models.BetLine{
		ID:     "b",
		Player: models.Player{Name: "NUNN, KENDRICK"},
		Prop:   models.Prop{Key: "AS", Label: "Assists", Tier: models.TierAlt},
		Side:   models.SideUnder,
		Line:   3.5,
		Odds:   2.1,
	}
	return []models.BetLine{a, b}
}

func TestStorage_ReplaceAndLoad(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	fetchedAt := time.Date(2025, 1, 10, 18, 30, 0, 0, time.UTC)

	if err := s.Replace(ctx, "upcoming|all|ALL", sampleLines(), fetchedAt); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	lines, at, err := s.Load(ctx, "upcoming|all|ALL")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !at.Equal(fetchedAt) {
		t.Errorf("Expected fetched at %v, got %v", fetchedAt, at)
	}
	if len(lines) != 2 || lines[0].ID != "a" || lines[1].ID != "b" {
		t.Fatalf("Expected lines a, b in order, got %+v", lines)
	}

	a := lines[0]
	if a.Odds != 1.85 || a.Player.ID != "77" || len(a.Games) != 1 || *a.Games[0].Minutes != 27.5 {
		t.Errorf("Unexpected restored line %+v", a)
	}
	if v, ok := a.Hit.Get(5); !ok || v != 80 {
		t.Errorf("Expected supplied L5 hit 80, got %v (%v)", v, ok)
	}
	if _, ok := a.Hit.Get(10); ok {
		t.Errorf("Expected L10 hit not supplied")
	}
	if v, ok := a.Value.Get(10); !ok || v != 3.5 {
		t.Errorf("Expected supplied vL10 3.5, got %v (%v)", v, ok)
	}
}

func TestStorage_ReplaceIsWholesale(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.Replace(ctx, "k", sampleLines(), time.Now()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if err := s.Replace(ctx, "k", sampleLines()[1:], time.Now()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	lines, _, err := s.Load(ctx, "k")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(lines) != 1 || lines[0].ID != "b" {
		t.Errorf("Expected only line b after replace, got %+v", lines)
	}

	if err := s.Replace(ctx, "k", nil, time.Now()); err != nil {
		t.Fatalf("Replace with empty failed: %v", err)
	}
	lines, _, err = s.Load(ctx, "k")
	if err != nil || len(lines) != 0 {
		t.Errorf("Expected empty stored collection, got %d (%v)", len(lines), err)
	}
}

func TestStorage_LoadMissing(t *testing.T) {
	s := newTestStorage(t)
	if _, _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStorage_Rotate(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, key := range []string{"k1", "k2", "k3", "k4"} {
		if err := s.Replace(ctx, key, sampleLines(), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Replace %s failed: %v", key, err)
		}
	}

	if err := s.Rotate(ctx, 2); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	infos, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(infos) != 2 || infos[0].QueryKey != "k4" || infos[1].QueryKey != "k3" {
		t.Errorf("Expected k4, k3 kept, got %+v", infos)
	}
	if infos[0].Lines != 2 {
		t.Errorf("Expected line count 2, got %d", infos[0].Lines)
	}
	if _, _, err := s.Load(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected k1 rotated out, got %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bet_lines`).Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 stored lines after rotation, got %d", count)
	}

	if err := s.Rotate(ctx, 0); err == nil {
		t.Error("Expected error for max snapshots 0")
	}
}

func TestStorage_Notifications(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	records := []Notification{
		{LineID: "old", Odds: 1.9, Edge: 4, SentAt: now.Add(-3 * time.Hour)},
		{LineID: "a", Odds: 2.0, Edge: 6, SentAt: now.Add(-30 * time.Minute)},
		{LineID: "a", Odds: 2.2, Edge: 8, SentAt: now},
	}
	for _, n := range records {
		if err := s.RecordNotification(ctx, n); err != nil {
			t.Fatalf("RecordNotification failed: %v", err)
		}
	}

	recent, err := s.Notifications(ctx, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if len(recent) != 1 || recent[0].LineID != "a" || recent[0].Odds != 2.2 || !recent[0].SentAt.Equal(now) {
		t.Errorf("Expected latest record of a, got %+v", recent)
	}

	if err := s.PruneNotifications(ctx, now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("PruneNotifications failed: %v", err)
	}
	all, err := s.Notifications(ctx, time.Time{})
	if err != nil {
		t.Fatalf("Notifications failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected old record pruned, got %+v", all)
	}
}

func TestStorage_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "propboard.db")
	s, err := New(path, 0755)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	if err := s.Replace(ctx, "k", sampleLines(), time.Now()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	s.Close()

	reopened, err := New(path, 0755)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()
	lines, _, err := reopened.Load(ctx, "k")
	if err != nil || len(lines) != 2 {
		t.Errorf("Expected 2 lines after reopen, got %d (%v)", len(lines), err)
	}

	if _, err := New("", 0755); err == nil {
		t.Error("Expected error for empty path")
	}
}

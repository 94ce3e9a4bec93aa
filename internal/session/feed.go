package session

import (
	"context"
	"sync"
	"time"

	"github.com/rewired-gh/propboard/internal/backend"
	"github.com/rewired-gh/propboard/internal/feed"
	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/models"
)

// FeedFetcher fetches one feed response.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, q backend.FeedQuery) (*backend.Feed, error)
}

// Snapshot is a consistent read of the feed session.
type Snapshot struct {
	QueryKey     string
	Lines        []models.BetLine
	AppliedMatch string
	FetchedAt    time.Time
	Status       string
}

// Feed holds the current bet-line collection. The collection is replaced
// as a whole on every fetch and never patched; callers may keep the slice
// they read.
type Feed struct {
	client FeedFetcher
	limit  int
	loader Loader[string, *backend.Feed]

	mu   sync.RWMutex
	snap Snapshot
}

// NewFeed creates an empty feed session.
func NewFeed(client FeedFetcher, limit int) *Feed {
	return &Feed{
		client: client,
		limit:  limit,
		snap:   Snapshot{Lines: make([]models.BetLine, 0)},
	}
}

// Refresh fetches the collection for st's query key. On failure the
// collection becomes empty and Status reports the error. ErrSuperseded
// means a newer Refresh owns the session; nothing was changed.
func (f *Feed) Refresh(ctx context.Context, st feed.State) error {
	q := backend.FeedQuery{
		Bookmaker: st.Bookmaker,
		Match:     st.Match,
		Scope:     string(st.Scope),
		Limit:     f.limit,
	}
	key := st.QueryKey()

	fetch := func(ctx context.Context, _ string) (*backend.Feed, error) {
		return f.client.FetchFeed(ctx, q)
	}
	apply := func(res *backend.Feed, err error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err != nil {
			logger.Warn("Feed fetch failed for %s: %v", key, err)
			f.snap = Snapshot{
				QueryKey:  key,
				Lines:     make([]models.BetLine, 0),
				FetchedAt: time.Now(),
				Status:    err.Error(),
			}
			return
		}
		f.snap = Snapshot{
			QueryKey:     key,
			Lines:        res.Lines,
			AppliedMatch: res.AppliedMatch,
			FetchedAt:    time.Now(),
		}
	}

	return f.loader.Load(ctx, key, fetch, apply)
}

// Restore installs a previously stored collection, e.g. when running
// offline. It cancels any fetch in flight.
func (f *Feed) Restore(queryKey string, lines []models.BetLine, fetchedAt time.Time) {
	f.loader.Cancel()
	if lines == nil {
		lines = make([]models.BetLine, 0)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = Snapshot{QueryKey: queryKey, Lines: lines, FetchedAt: fetchedAt}
}

// Snapshot returns the current session state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap
}

// Lines returns the current collection.
func (f *Feed) Lines() []models.BetLine {
	return f.Snapshot().Lines
}

// Status returns the error of the last fetch, or "" after a success.
func (f *Feed) Status() string {
	return f.Snapshot().Status
}

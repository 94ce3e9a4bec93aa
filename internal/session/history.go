package session

import (
	"context"
	"sync"

	"github.com/rewired-gh/propboard/internal/models"
)

// HistoryFetcher fetches the recent games of a player.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, playerID string, lastN int) ([]models.Game, error)
}

// HistoryKey is the input of a history load: the selected line and window.
type HistoryKey struct {
	LineID   string
	PlayerID string
	LastN    int
}

// History holds the game history of the selected line. Selecting another
// line or window aborts the load in flight.
type History struct {
	client HistoryFetcher
	loader Loader[HistoryKey, []models.Game]

	mu     sync.RWMutex
	key    HistoryKey
	games  []models.Game
	status string
}

// NewHistory creates an empty history session.
func NewHistory(client HistoryFetcher) *History {
	return &History{client: client}
}

// Load fetches the history for key and returns the games applied. On
// failure the games are cleared and the error is returned and kept as the
// status.
func (h *History) Load(ctx context.Context, key HistoryKey) ([]models.Game, error) {
	var applied []models.Game
	fetch := func(ctx context.Context, k HistoryKey) ([]models.Game, error) {
		return h.client.FetchHistory(ctx, k.PlayerID, k.LastN)
	}
	apply := func(games []models.Game, err error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.key = key
		if err != nil {
			h.games = make([]models.Game, 0)
			h.status = err.Error()
		} else {
			h.games = games
			h.status = ""
		}
		applied = h.games
	}
	if err := h.loader.Load(ctx, key, fetch, apply); err != nil {
		return nil, err
	}
	return applied, nil
}

// Close aborts the load in flight and clears the history.
func (h *History) Close() {
	h.loader.Cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.key = HistoryKey{}
	h.games = nil
	h.status = ""
}

// Current returns the key and games last applied, and the last error.
func (h *History) Current() (HistoryKey, []models.Game, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key, h.games, h.status
}

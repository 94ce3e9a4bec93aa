// Package server exposes the feed view, line detail and chart points over a
// small JSON API for local frontends.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/rewired-gh/propboard/internal/feed"
	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/rewired-gh/propboard/internal/projection"
	"github.com/rewired-gh/propboard/internal/selection"
	"github.com/rewired-gh/propboard/internal/session"
)

// MatchFetcher lists upcoming matches for a bookmaker.
type MatchFetcher interface {
	FetchUpcomingMatches(ctx context.Context, bookmaker string) ([]models.MatchOption, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	feed     *session.Feed
	history  *session.History
	matches  MatchFetcher
	defaults feed.State
}

// NewHandler creates a new handler. matches may be nil, in which case the
// upcoming venue falls back to the line's own hints.
func NewHandler(f *session.Feed, h *session.History, matches MatchFetcher, defaults feed.State) *Handler {
	return &Handler{
		feed:     f,
		history:  h,
		matches:  matches,
		defaults: defaults,
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// lineView is a bet line with its display metrics.
type lineView struct {
	models.BetLine
	PlayerKey string          `json:"player_key"`
	PropShort string          `json:"prop_short"`
	TeamName  string          `json:"team_name"`
	TeamLogo  string          `json:"team_logo,omitempty"`
	Metrics   metrics.Summary `json:"metrics"`
}

func newLineView(b models.BetLine, window int) lineView {
	team := b.TeamKey
	if team == "" {
		team = b.Player.Team
	}
	return lineView{
		BetLine:   b,
		PlayerKey: feed.PlayerKey(&b),
		PropShort: keys.ShortPropLabel(b.Prop.Key),
		TeamName:  keys.TeamDisplayName(team),
		TeamLogo:  keys.TeamLogoPath(team),
		Metrics:   metrics.Summarize(&b, window),
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.feed.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"service":    "propboard",
		"query_key":  snap.QueryKey,
		"lines":      len(snap.Lines),
		"fetched_at": snap.FetchedAt,
	})
}

// stateFromQuery applies the query parameters to the default state.
// Query params: match, bookmaker, scope, sort, dir, odds_min, odds_max,
// category (repeatable), player (repeatable), team, last_n
func (h *Handler) stateFromQuery(r *http.Request) (feed.State, error) {
	q := r.URL.Query()
	st := h.defaults

	if q.Has("match") {
		st = st.WithMatch(q.Get("match"))
	}
	if q.Has("bookmaker") {
		st = st.WithBookmaker(q.Get("bookmaker"))
	}
	if q.Has("scope") {
		st = st.WithScope(q.Get("scope"))
	}
	if q.Has("sort") {
		key, err := metrics.ParseSortKey(q.Get("sort"))
		if err != nil {
			return feed.State{}, err
		}
		st = st.WithSort(key)
	}
	if q.Has("dir") {
		st = st.WithSortDir(q.Get("dir"))
	}
	if q.Has("odds_min") || q.Has("odds_max") {
		lo, hi := st.OddsMin, st.OddsMax
		if q.Has("odds_min") {
			lo = q.Get("odds_min")
		}
		if q.Has("odds_max") {
			hi = q.Get("odds_max")
		}
		st = st.WithOddsRange(lo, hi)
	}
	for _, c := range q["category"] {
		st = st.ToggleCategory(c)
	}
	for _, p := range q["player"] {
		st = st.TogglePlayer(p)
	}
	if q.Has("team") {
		st = st.WithTeam(q.Get("team"))
	}
	st = st.WithLastN(parseIntParam(r, "last_n", st.LastN))
	return st, nil
}

// ensureFeed fetches the collection when st needs a different query key
// than the one loaded, or when refresh is requested.
func (h *Handler) ensureFeed(ctx context.Context, st feed.State, refresh bool) error {
	if !refresh && h.feed.Snapshot().QueryKey == st.QueryKey() {
		return nil
	}
	return h.feed.Refresh(ctx, st)
}

// respondFetchError maps a failed backend load onto a response.
func respondFetchError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, session.ErrSuperseded) {
		respondError(w, http.StatusConflict, "request superseded by a newer one", err)
		return
	}
	respondError(w, http.StatusBadGateway, message, err)
}

// GetView returns the filtered, sorted feed view with its filter options.
// Query params: see stateFromQuery, plus refresh and q (player search)
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	st, err := h.stateFromQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sort key", err)
		return
	}

	if err := h.ensureFeed(r.Context(), st, cast.ToBool(r.URL.Query().Get("refresh"))); err != nil {
		respondFetchError(w, "failed to fetch feed", err)
		return
	}

	snap := h.feed.Snapshot()
	view := feed.Apply(snap.Lines, st)
	lines := make([]lineView, 0, len(view))
	for _, b := range view {
		lines = append(lines, newLineView(b, st.SortKey.Window))
	}

	categories, players := feed.Options(snap.Lines)
	if q := r.URL.Query().Get("q"); q != "" || st.SelectedTeam != "" {
		players = feed.SearchPlayers(players, st.SelectedTeam, q)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query_key":     snap.QueryKey,
		"applied_match": snap.AppliedMatch,
		"fetched_at":    snap.FetchedAt,
		"status":        snap.Status,
		"state":         st,
		"sort":          st.SortKey.String(),
		"lines":         lines,
		"count":         len(lines),
		"total":         len(snap.Lines),
		"categories":    categories,
		"players":       players,
	})
}

// GetMatches lists upcoming matches.
// Query params: bookmaker
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"matches": []models.MatchOption{}, "count": 0})
		return
	}
	bookmaker := r.URL.Query().Get("bookmaker")
	if bookmaker == "" {
		bookmaker = h.defaults.Bookmaker
	}
	matches, err := h.matches.FetchUpcomingMatches(r.Context(), bookmaker)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch matches", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// findLine returns the line with the URL's id from the current collection.
func (h *Handler) findLine(r *http.Request) (models.BetLine, []models.BetLine, bool) {
	id := chi.URLParam(r, "id")
	lines := h.feed.Lines()
	for i := range lines {
		if lines[i].ID == id {
			return lines[i], lines, true
		}
	}
	return models.BetLine{}, lines, false
}

type categoryButton struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

type categoryTab struct {
	Name    string           `json:"name"`
	Enabled bool             `json:"enabled"`
	Buttons []categoryButton `json:"buttons"`
}

func categoryTabs(target models.BetLine, all []models.BetLine) []categoryTab {
	available := selection.AvailablePropKeys(target, all)
	tabs := make([]categoryTab, 0, len(keys.CategoryTabs))
	for _, tab := range keys.CategoryTabs {
		t := categoryTab{Name: tab.Name, Enabled: selection.TabHasAny(tab, available)}
		for _, l := range tab.Labels {
			k, ok := keys.UICategoryToPropKey(l)
			t.Buttons = append(t.Buttons, categoryButton{
				Label:   l,
				Enabled: ok && available[k],
				Active:  selection.IsCategoryActive(l, target),
			})
		}
		tabs = append(tabs, t)
	}
	return tabs
}

func (h *Handler) respondDetail(w http.ResponseWriter, r *http.Request, selected models.BetLine, all []models.BetLine) {
	window := parseIntParam(r, "last_n", h.defaults.LastN)
	if models.MaskFor(window) == 0 {
		window = h.defaults.LastN
	}
	windows := make([]metrics.Summary, 0, len(models.Windows))
	for _, n := range models.Windows {
		windows = append(windows, metrics.Summarize(&selected, n))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"line":    newLineView(selected, window),
		"windows": windows,
		"tabs":    categoryTabs(selected, all),
	})
}

// GetLine returns the detail of a line, resolved to the best-priced
// duplicate across bookmakers.
// Query params: last_n
func (h *Handler) GetLine(w http.ResponseWriter, r *http.Request) {
	target, all, ok := h.findLine(r)
	if !ok {
		respondError(w, http.StatusNotFound, "line not found", nil)
		return
	}
	h.respondDetail(w, r, selection.BestOdds(target, all), all)
}

// GetLineCategory switches the line's player to another category.
// Query params: last_n
func (h *Handler) GetLineCategory(w http.ResponseWriter, r *http.Request) {
	target, all, ok := h.findLine(r)
	if !ok {
		respondError(w, http.StatusNotFound, "line not found", nil)
		return
	}
	label := chi.URLParam(r, "label")
	if _, known := keys.UICategoryToPropKey(label); !known {
		respondError(w, http.StatusBadRequest, "unknown category", nil)
		return
	}
	window := parseIntParam(r, "last_n", h.defaults.LastN)
	h.respondDetail(w, r, selection.ForCategory(target, all, label, window), all)
}

type pointView struct {
	models.GamePoint
	Label string `json:"label"`
}

// GetLinePoints returns the chart points of a line.
// Query params: last_n, projection, delta, dir, min_minutes, max_minutes, venue
func (h *Handler) GetLinePoints(w http.ResponseWriter, r *http.Request) {
	line, _, ok := h.findLine(r)
	if !ok {
		respondError(w, http.StatusNotFound, "line not found", nil)
		return
	}
	q := r.URL.Query()
	lastN := parseIntParam(r, "last_n", h.defaults.LastN)

	minMinutes, err := parseFloatParam(r, "min_minutes")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid min_minutes", err)
		return
	}
	maxMinutes, err := parseFloatParam(r, "max_minutes")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid max_minutes", err)
		return
	}
	delta, err := parseFloatParam(r, "delta")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid delta", err)
		return
	}

	games := line.Games
	source := "feed"
	if strings.TrimSpace(line.Player.ID) != "" {
		key := session.HistoryKey{LineID: line.ID, PlayerID: line.Player.ID, LastN: lastN}
		games, err = h.history.Load(r.Context(), key)
		if err != nil {
			respondFetchError(w, "failed to fetch player history", err)
			return
		}
		source = "history"
	}

	opts := projection.Options{
		LastN:      lastN,
		Projection: cast.ToBool(q.Get("projection")),
		Dir:        projection.ParseDirection(q.Get("dir")),
	}
	if delta != nil {
		opts.Delta = *delta
	}

	points := projection.Order(projection.Points(&line, games, opts))
	points = projection.FilterMinutes(points, minMinutes, maxMinutes)
	points = projection.FilterVenue(points, models.Venue(strings.ToLower(q.Get("venue"))))

	out := make([]pointView, 0, len(points))
	top := line.Line
	for _, p := range points {
		out = append(out, pointView{GamePoint: p, Label: projection.Label(p)})
		top = math.Max(top, p.Stat)
	}

	resp := map[string]interface{}{
		"line_id":  line.ID,
		"source":   source,
		"points":   out,
		"counts":   projection.Count(points, line.Side, line.Line),
		"y_max":    projection.NiceMax(top),
		"upcoming": projection.UpcomingVenue(&line, h.upcomingMatches(r.Context(), line.Bookmaker)),
	}
	if avg, ok := projection.AverageMinutes(points); ok {
		resp["avg_minutes"] = avg
	}
	respondJSON(w, http.StatusOK, resp)
}

// upcomingMatches returns the match list used to infer the next venue.
// Failures only weaken the inference and are not reported.
func (h *Handler) upcomingMatches(ctx context.Context, bookmaker string) []models.MatchOption {
	if h.matches == nil {
		return nil
	}
	if bookmaker == "" {
		bookmaker = h.defaults.Bookmaker
	}
	matches, err := h.matches.FetchUpcomingMatches(ctx, bookmaker)
	if err != nil {
		logger.Debug("Upcoming matches unavailable for venue inference: %v", err)
		return nil
	}
	return matches
}

// Helper functions

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// parseFloatParam returns nil when the parameter is absent.
func parseFloatParam(r *http.Request, param string) (*float64, error) {
	valueStr := strings.TrimSpace(r.URL.Query().Get(param))
	if valueStr == "" {
		return nil, nil
	}
	value, err := cast.ToFloat64E(strings.Replace(valueStr, ",", ".", 1))
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.Warn("%s: %v", message, err)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

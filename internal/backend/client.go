package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/rewired-gh/propboard/internal/normalize"
)

// maxBodyBytes bounds a single response body.
const maxBodyBytes = 32 << 20

// appliedMatchHeader carries the match the backend actually resolved
// "upcoming" to.
const appliedMatchHeader = "X-Applied-Match"

// ErrMissingPlayerID is returned when history is requested for a line
// without a player id.
var ErrMissingPlayerID = errors.New("player id is required for history")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d", e.StatusCode)
	if text := http.StatusText(e.StatusCode); text != "" {
		msg += " " + text
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client provides access to the bet-lines backend. Requests are made once:
// a failed fetch is returned to the caller, and the configured timeout is
// the only deadline besides the caller's context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new backend client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FeedQuery holds the server-side feed filters.
type FeedQuery struct {
	Bookmaker string
	Match     string
	Scope     string
	Limit     int
}

// Feed is one normalized feed response.
type Feed struct {
	Lines        []models.BetLine
	AppliedMatch string
}

// FetchFeed retrieves and normalizes the bet-line feed.
func (c *Client) FetchFeed(ctx context.Context, q FeedQuery) (*Feed, error) {
	params := url.Values{}
	params.Set("bookmaker", q.Bookmaker)
	params.Set("match", q.Match)
	params.Set("scope", q.Scope)
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	body, header, err := c.get(ctx, "/api/feed", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	lines, err := normalize.Feed(body)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetched %d bet lines (match=%s bookmaker=%s scope=%s)", len(lines), q.Match, q.Bookmaker, q.Scope)
	return &Feed{
		Lines:        lines,
		AppliedMatch: header.Get(appliedMatchHeader),
	}, nil
}

// FetchUpcomingMatches retrieves the upcoming match options for a bookmaker.
func (c *Client) FetchUpcomingMatches(ctx context.Context, bookmaker string) ([]models.MatchOption, error) {
	params := url.Values{}
	params.Set("bookmaker", bookmaker)

	body, _, err := c.get(ctx, "/api/upcoming-matches", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming matches: %w", err)
	}
	return normalize.MatchOptions(body)
}

// FetchHistory retrieves the last lastN games of a player.
func (c *Client) FetchHistory(ctx context.Context, playerID string, lastN int) ([]models.Game, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, ErrMissingPlayerID
	}
	params := url.Values{}
	params.Set("last_n", strconv.Itoa(lastN))

	body, _, err := c.get(ctx, "/api/player/"+url.PathEscape(playerID)+"/history", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for player %s: %w", playerID, err)
	}
	return normalize.History(body)
}

// get performs a single GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, http.Header, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, resp.Header, nil
}

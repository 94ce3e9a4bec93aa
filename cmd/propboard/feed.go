package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/propboard/internal/feed"
	"github.com/rewired-gh/propboard/internal/keys"
	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/rewired-gh/propboard/internal/projection"
	"github.com/rewired-gh/propboard/internal/selection"
	"github.com/rewired-gh/propboard/internal/session"
	"github.com/rewired-gh/propboard/internal/storage"
)

// loadCollection returns the collection for st's query key together with
// the upcoming matches. Online, the feed and the match list are fetched
// concurrently and the collection is stored; offline, the stored
// collection is used and no match list is available.
func (a *app) loadCollection(ctx context.Context, st feed.State, offline bool) (session.Snapshot, []models.MatchOption, error) {
	fs := session.NewFeed(a.client, a.cfg.API.FeedLimit)

	if offline {
		lines, fetchedAt, err := a.store.Load(ctx, st.QueryKey())
		if errors.Is(err, storage.ErrNotFound) {
			if infos, listErr := a.store.Snapshots(ctx); listErr == nil {
				for _, info := range infos {
					fmt.Printf("stored: %s (%s lines, fetched %s)\n",
						info.QueryKey, humanize.Comma(int64(info.Lines)), humanize.Time(info.FetchedAt))
				}
			}
			return session.Snapshot{}, nil, fmt.Errorf("no stored collection for %s, run without -offline first", st.QueryKey())
		}
		if err != nil {
			return session.Snapshot{}, nil, fmt.Errorf("failed to load stored collection: %w", err)
		}
		fs.Restore(st.QueryKey(), lines, fetchedAt)
		return fs.Snapshot(), nil, nil
	}

	var matches []models.MatchOption
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := fs.Refresh(gctx, st); err != nil {
			return fmt.Errorf("failed to fetch feed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		m, err := a.client.FetchUpcomingMatches(gctx, st.Bookmaker)
		if err != nil {
			// The match list only labels the view.
			logger.Warn("Failed to fetch upcoming matches: %v", err)
			return nil
		}
		matches = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return session.Snapshot{}, nil, err
	}

	snap := fs.Snapshot()
	if err := a.store.Replace(ctx, snap.QueryKey, snap.Lines, snap.FetchedAt); err != nil {
		logger.Warn("Failed to store collection: %v", err)
	} else if err := a.store.Rotate(ctx, a.cfg.Storage.MaxSnapshots); err != nil {
		logger.Warn("Failed to rotate stored collections: %v", err)
	}
	return snap, matches, nil
}

func (a *app) runFeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	var vf viewFlags
	vf.register(fs)
	offline := fs.Bool("offline", false, "Use the stored collection instead of fetching")
	limit := fs.Int("limit", 50, "Maximum rows to print (0 for all)")
	search := fs.String("search", "", "List players whose surname starts with this instead of lines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base, err := initialState(a.cfg)
	if err != nil {
		return err
	}
	st, err := vf.apply(base)
	if err != nil {
		return err
	}

	snap, matches, err := a.loadCollection(ctx, st, *offline)
	if err != nil {
		return err
	}

	if *search != "" {
		_, players := feed.Options(snap.Lines)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSURNAME\tNAME\tTEAM")
		for _, p := range feed.SearchPlayers(players, st.SelectedTeam, *search) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Key, p.Surname, p.Name, keys.TeamDisplayName(p.Team))
		}
		return w.Flush()
	}

	view := feed.Apply(snap.Lines, st)
	printViewHeader(snap, st, len(view), matches)

	rows := view
	if *limit > 0 && len(rows) > *limit {
		rows = rows[:*limit]
	}
	n := st.SortKey.Window
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tPLAYER\tTEAM\tPROP\tSIDE\tLINE\tODDS\tBOOK\tL%d\tvL%d\n", n, n)
	for i := range rows {
		b := &rows[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%.0f%%\t%+.1f\n",
			shortID(b.ID), b.Player.Name, teamLabel(b), keys.ShortPropLabel(b.Prop.Key),
			b.Side, humanize.Ftoa(b.Line), b.Odds, b.Bookmaker,
			metrics.HitFor(b, n), metrics.EdgeFor(b, n))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(rows) < len(view) {
		fmt.Printf("... %s more\n", humanize.Comma(int64(len(view)-len(rows))))
	}
	return nil
}

func printViewHeader(snap session.Snapshot, st feed.State, shown int, matches []models.MatchOption) {
	fmt.Printf("%s of %s lines (%s, fetched %s)\n",
		humanize.Comma(int64(shown)), humanize.Comma(int64(len(snap.Lines))),
		snap.QueryKey, humanize.Time(snap.FetchedAt))
	if snap.AppliedMatch != "" && snap.AppliedMatch != st.Match {
		fmt.Printf("Applied match: %s\n", snap.AppliedMatch)
	}
	if len(matches) > 0 {
		labels := make([]string, 0, len(matches))
		for _, m := range matches {
			labels = append(labels, m.Label)
		}
		fmt.Printf("Upcoming: %s\n", strings.Join(labels, ", "))
	}
	fmt.Printf("Sorted by %s %s, odds %s-%s\n\n", st.SortKey, st.SortDir, st.OddsMin, st.OddsMax)
}

func teamLabel(b *models.BetLine) string {
	if b.TeamKey != "" {
		return keys.TeamDisplayName(b.TeamKey)
	}
	return keys.TeamDisplayName(b.Player.Team)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (a *app) runDetail(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("detail", flag.ContinueOnError)
	var vf viewFlags
	vf.register(fs)
	id := fs.String("id", "", "Line id, or a unique prefix of it (required)")
	category := fs.String("switch", "", "Switch the player to this category button label, e.g. REB")
	offline := fs.Bool("offline", false, "Use the stored collection instead of fetching")
	project := fs.Bool("projection", false, "Project stats to a different minutes load")
	delta := fs.Float64("delta", 0, "Projected minutes change")
	dir := fs.String("proj-dir", "more", "Projection direction: more or less")
	venue := fs.String("venue", "", "Only games played vs (home) or at (away)")
	minMinutes := fs.Float64("min-minutes", 0, "Minutes filter lower bound (0 for none)")
	maxMinutes := fs.Float64("max-minutes", 0, "Minutes filter upper bound (0 for none)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	base, err := initialState(a.cfg)
	if err != nil {
		return err
	}
	st, err := vf.apply(base)
	if err != nil {
		return err
	}

	snap, matches, err := a.loadCollection(ctx, st, *offline)
	if err != nil {
		return err
	}
	target, err := findLine(snap.Lines, *id)
	if err != nil {
		return err
	}

	line := selection.BestOdds(target, snap.Lines)
	if *category != "" {
		line = selection.ForCategory(target, snap.Lines, *category, st.LastN)
	}

	fmt.Printf("%s (%s) %s %s %s @ %.2f %s\n\n", line.Player.Name, teamLabel(&line),
		keys.ShortPropLabel(line.Prop.Key), line.Side, humanize.Ftoa(line.Line), line.Odds, line.Bookmaker)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WINDOW\tHIT\tIMPLIED\tEDGE\tEV")
	for _, n := range models.Windows {
		s := metrics.Summarize(&line, n)
		fmt.Fprintf(w, "L%d\t%.0f%%\t%.1f%%\t%+.1f\t%+.1f%%\n", n, s.HitRate, s.Implied, s.Edge, s.ExpectedValue)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	available := selection.AvailablePropKeys(line, snap.Lines)
	var tabs []string
	for _, tab := range keys.CategoryTabs {
		if selection.TabHasAny(tab, available) {
			tabs = append(tabs, tab.Name)
		}
	}
	fmt.Printf("\nCategories: %s\n\n", strings.Join(tabs, ", "))

	games := line.Games
	if line.Player.ID != "" && !*offline {
		h := session.NewHistory(a.client)
		defer h.Close()
		games, err = h.Load(ctx, session.HistoryKey{LineID: line.ID, PlayerID: line.Player.ID, LastN: st.LastN})
		if err != nil {
			return fmt.Errorf("failed to fetch player history: %w", err)
		}
	}

	opts := projection.Options{
		LastN:      st.LastN,
		Projection: *project,
		Delta:      *delta,
		Dir:        projection.ParseDirection(*dir),
	}
	points := projection.Order(projection.Points(&line, games, opts))
	points = projection.FilterMinutes(points, optionalFloat(*minMinutes), optionalFloat(*maxMinutes))
	points = projection.FilterVenue(points, models.Venue(strings.ToLower(*venue)))

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tDATE\tROUND\tMIN\tSTAT\tHIT")
	for _, p := range points {
		mins := "-"
		if p.Minutes != nil {
			mins = fmt.Sprintf("%.1f", *p.Minutes)
		}
		hit := ""
		if metrics.Hits(line.Side, p.Stat, line.Line) {
			hit = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", projection.Label(p), p.Date, p.Round, mins, humanize.FtoaWithDigits(p.Stat, 2), hit)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c := projection.Count(points, line.Side, line.Line)
	fmt.Printf("\n%d/%d hit (over %d, under %d, push %d)", c.Hits, c.Total, c.Over, c.Under, c.Push)
	if avg, ok := projection.AverageMinutes(points); ok {
		fmt.Printf(", avg %.1f min", avg)
	}
	fmt.Printf(", next game %s\n", projection.UpcomingVenue(&line, matches))
	return nil
}

// findLine finds a line by id or by a unique id prefix.
func findLine(lines []models.BetLine, id string) (models.BetLine, error) {
	var found []int
	for i := range lines {
		if lines[i].ID == id {
			return lines[i], nil
		}
		if strings.HasPrefix(lines[i].ID, id) {
			found = append(found, i)
		}
	}
	switch len(found) {
	case 0:
		return models.BetLine{}, fmt.Errorf("line %s not found", id)
	case 1:
		return lines[found[0]], nil
	default:
		return models.BetLine{}, fmt.Errorf("line prefix %s is ambiguous (%d matches)", id, len(found))
	}
}

func optionalFloat(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}

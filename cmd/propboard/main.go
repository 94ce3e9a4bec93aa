package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rewired-gh/propboard/internal/backend"
	"github.com/rewired-gh/propboard/internal/config"
	"github.com/rewired-gh/propboard/internal/feed"
	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/metrics"
	"github.com/rewired-gh/propboard/internal/storage"
)

const usage = `Usage: propboard [-config path] <command> [flags]

Commands:
  feed    print the filtered, sorted bet-line view
  detail  print one line with its metrics and chart points
  watch   poll the feed and send value digests to Telegram
  serve   run the local JSON view API
`

var configPath = flag.String("config", "", "Path to configuration file (defaults and environment only when empty)")

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	client *backend.Client
	store  *storage.Storage
}

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()
	if *configPath != "" {
		logger.Debug("Configuration loaded from %s", *configPath)
	}

	// Initialize storage
	store, err := storage.New(cfg.Storage.DBPath, 0755)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	a := &app{
		cfg:    cfg,
		client: backend.NewClient(cfg.API.BaseURL, cfg.API.Timeout),
		store:  store,
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "feed":
		err = a.runFeed(ctx, args)
	case "detail":
		err = a.runDetail(ctx, args)
	case "watch":
		err = a.runWatch(ctx, args)
	case "serve":
		err = a.runServe(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		logger.Error("%s failed: %v", cmd, err)
		stop()
		logger.Sync()
		os.Exit(1)
	}
}

// initialState builds the view state configured under filters.
func initialState(cfg *config.Config) (feed.State, error) {
	key, err := metrics.ParseSortKey(cfg.Filters.SortKey)
	if err != nil {
		return feed.State{}, fmt.Errorf("failed to parse filters.sort_key: %w", err)
	}
	return feed.DefaultState().
		WithMatch(cfg.Filters.Match).
		WithBookmaker(cfg.Filters.Bookmaker).
		WithScope(cfg.Filters.Scope).
		WithSort(key).
		WithSortDir(cfg.Filters.SortDir).
		WithOddsRange(cfg.Filters.OddsMin, cfg.Filters.OddsMax).
		WithLastN(cfg.Filters.LastN), nil
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// viewFlags are the state flags shared by feed and watch.
type viewFlags struct {
	match, bookmaker, scope string
	sort, dir               string
	oddsMin, oddsMax        string
	team                    string
	lastN                   int
	categories, players     multiFlag
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&v.match, "match", "", "Match value (default from filters.match)")
	fs.StringVar(&v.bookmaker, "bookmaker", "", "Bookmaker (default from filters.bookmaker)")
	fs.StringVar(&v.scope, "scope", "", "MAIN, ALT or ALL")
	fs.StringVar(&v.sort, "sort", "", "Sort key: L5..L20 or vL5..vL20")
	fs.StringVar(&v.dir, "dir", "", "Sort direction: asc or desc")
	fs.StringVar(&v.oddsMin, "odds-min", "", "Lower odds bound")
	fs.StringVar(&v.oddsMax, "odds-max", "", "Upper odds bound")
	fs.StringVar(&v.team, "team", "", "Team key filter")
	fs.IntVar(&v.lastN, "last-n", 0, "Detail window: 5, 10, 15 or 20")
	fs.Var(&v.categories, "category", "Prop label filter (repeatable)")
	fs.Var(&v.players, "player", "Player key filter, <team>::<name> (repeatable)")
}

// apply layers the flags that were set over st.
func (v *viewFlags) apply(st feed.State) (feed.State, error) {
	if v.match != "" {
		st = st.WithMatch(v.match)
	}
	if v.bookmaker != "" {
		st = st.WithBookmaker(v.bookmaker)
	}
	if v.scope != "" {
		st = st.WithScope(v.scope)
	}
	if v.sort != "" {
		key, err := metrics.ParseSortKey(v.sort)
		if err != nil {
			return feed.State{}, err
		}
		st = st.WithSort(key)
	}
	if v.dir != "" {
		st = st.WithSortDir(v.dir)
	}
	if v.oddsMin != "" || v.oddsMax != "" {
		lo, hi := st.OddsMin, st.OddsMax
		if v.oddsMin != "" {
			lo = v.oddsMin
		}
		if v.oddsMax != "" {
			hi = v.oddsMax
		}
		st = st.WithOddsRange(lo, hi)
	}
	for _, c := range v.categories {
		st = st.ToggleCategory(c)
	}
	for _, p := range v.players {
		st = st.TogglePlayer(p)
	}
	if v.team != "" {
		st = st.WithTeam(v.team)
	}
	if v.lastN != 0 {
		st = st.WithLastN(v.lastN)
	}
	return st, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/rewired-gh/propboard/internal/backend"
	"github.com/rewired-gh/propboard/internal/config"
	"github.com/rewired-gh/propboard/internal/feed"
	"github.com/rewired-gh/propboard/internal/logger"
	"github.com/rewired-gh/propboard/internal/models"
	"github.com/rewired-gh/propboard/internal/monitor"
	"github.com/rewired-gh/propboard/internal/storage"
	"github.com/rewired-gh/propboard/internal/telegram"
)

func (a *app) runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	var vf viewFlags
	vf.register(fs)
	once := fs.Bool("once", false, "Run a single cycle and exit")
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
	cfg := a.cfg

	mon := monitor.New(a.store)
	if err := mon.RestoreNotified(ctx, cfg.Watch.Cooldown); err != nil {
		logger.Warn("Failed to restore notification records: %v", err)
	}

	// Initialize Telegram client
	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	logger.Info("Starting watch (query: %s, interval: %v, window: %s, min_edge: %.1f, top_k: %d, cooldown: %v)",
		st.QueryKey(), cfg.Watch.PollInterval, st.SortKey, cfg.Watch.MinEdge, cfg.Watch.TopK, cfg.Watch.Cooldown)

	interval := cfg.Watch.PollInterval
	if *once {
		interval = 0
	}

	consecutiveFailures := 0
	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Watch cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
			return
		}
		if consecutiveFailures > 0 && telegramClient != nil {
			if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
				logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
			}
		}
		consecutiveFailures = 0
	}

	// Run initial cycle immediately
	cycleErr := runWatchCycle(ctx, a.client, mon, a.store, telegramClient, cfg, st, interval)
	if *once {
		return cycleErr
	}
	handleCycleResult(cycleErr)

	ticker := time.NewTicker(cfg.Watch.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped")
			return nil

		case <-ticker.C:
			logger.Debug("Starting scheduled watch cycle")
			handleCycleResult(runWatchCycle(ctx, a.client, mon, a.store, telegramClient, cfg, st, interval))
		}
	}
}

func runWatchCycle(
	ctx context.Context,
	client *backend.Client,
	mon *monitor.Monitor,
	store *storage.Storage,
	telegramClient *telegram.Client,
	cfg *config.Config,
	st feed.State,
	interval time.Duration, // poll interval shown in the digest, 0 for one-shot runs
) error {
	watch := cfg.Watch
	startTime := time.Now()
	key := st.QueryKey()

	prev, _, err := store.Load(ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("Failed to load previous collection: %v", err)
	}

	res, err := client.FetchFeed(ctx, backend.FeedQuery{
		Bookmaker: st.Bookmaker,
		Match:     st.Match,
		Scope:     string(st.Scope),
		Limit:     cfg.API.FeedLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}
	fetchedAt := time.Now()
	logger.Info("Fetched %d lines for %s", len(res.Lines), key)

	if err := store.Replace(ctx, key, res.Lines, fetchedAt); err != nil {
		return fmt.Errorf("failed to store collection: %w", err)
	}
	if err := store.Rotate(ctx, cfg.Storage.MaxSnapshots); err != nil {
		logger.Warn("Failed to rotate stored collections: %v", err)
	}

	movements := monitor.DetectMovements(prev, res.Lines)
	view := feed.Apply(res.Lines, st)
	picks := mon.Rank(view, movements, st.SortKey.Window, watch.MinEdge, watch.TopK)
	ranked := len(picks)

	// Suppress lines sent within the cooldown unless their price improved
	picks = mon.FilterRecentlySent(picks, watch.Cooldown)

	if len(picks) > 0 {
		logger.Info("Ranked %d of %d view lines above min_edge=%.1f, %d new after cooldown",
			ranked, len(view), watch.MinEdge, len(picks))

		if telegramClient != nil {
			if err := telegramClient.Send(picks, telegram.Digest{FetchedAt: fetchedAt, Interval: interval}); err != nil {
				logger.Error("Failed to send Telegram notification: %v", err)
			} else {
				logger.Info("Sent Telegram digest with %d lines", len(picks))
				if err := mon.RecordNotified(ctx, picks); err != nil {
					logger.Warn("Failed to record notifications: %v", err)
				}
			}
		} else {
			logPicks(picks)
		}
	} else {
		logger.Info("No new lines above min_edge=%.1f this cycle (%d ranked)", watch.MinEdge, ranked)
	}

	logger.Info("Watch cycle completed in %v", time.Since(startTime))
	return nil
}

func logPicks(picks []monitor.Pick) {
	for i, p := range picks {
		logger.Info("#%d %s %s %s %v @ %.2f (%s): edge %+.1f, hit %.0f%%",
			i+1, p.Line.Player.Name, p.Line.Prop.Key, p.Line.Side, p.Line.Line, p.Line.Odds,
			bookmakerOrDash(p.Line), p.Summary.Edge, p.Summary.HitRate)
	}
}

func bookmakerOrDash(b models.BetLine) string {
	if b.Bookmaker == "" {
		return "-"
	}
	return b.Bookmaker
}

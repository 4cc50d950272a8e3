package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"rdscraper/internal/cache"
	"rdscraper/internal/downloader"
	"rdscraper/pkg/archive"
	"rdscraper/pkg/checkpoint"
	"rdscraper/pkg/config"
	apperrors "rdscraper/pkg/errors"
	"rdscraper/pkg/listing"
	"rdscraper/pkg/logger"
	"rdscraper/pkg/ratelimit"
	"rdscraper/pkg/reddit"
	"rdscraper/pkg/scraper"
	"rdscraper/pkg/session"
	"rdscraper/pkg/storage"
	"rdscraper/pkg/ui"
)

// app holds the wired components of one command invocation
type app struct {
	cfg      *config.Config
	log      logger.Logger
	store    *checkpoint.Store
	cache    *cache.ListingCache
	notifier *ui.Notifier
	scraper  *scraper.Scraper
}

func newApp(cfg *config.Config, operator scraper.Operator) (*app, error) {
	log := logger.GetLogger()

	client := reddit.NewClient(reddit.Options{
		BaseURL:   cfg.Reddit.BaseURL,
		UserAgent: cfg.Reddit.UserAgent,
		Cookie:    cfg.Reddit.Cookie,
		Timeout:   cfg.Download.Timeout,
		Limiter:   ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
	}, log)
	applySession(client, log)

	sm, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.NewStore(cfg.Checkpoint.Path, log)
	if err != nil {
		return nil, err
	}

	var packager archive.Packager
	if cfg.Output.CreateArchive {
		packager = archive.NewZipPackager(log)
	}

	loop := downloader.NewLoop(client, sm, store, packager, ui.NewReporter(), log)
	fetcher := listing.NewFetcher(client, cfg.Download.PageSize, log)
	notifier := ui.NewNotifier(notify)

	s := scraper.New(fetcher, loop, store, operator, log).WithObserver(notifier)

	a := &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		notifier: notifier,
		scraper:  s,
	}

	if cfg.Checkpoint.CacheListings {
		path := cfg.Checkpoint.CachePath
		if path == "" {
			path = filepath.Join(filepath.Dir(store.Path()), "listings.db")
		}
		lc, err := cache.Open(path)
		if err != nil {
			return nil, err
		}
		a.cache = lc
		s.WithCache(lc)
	}

	return a, nil
}

// applySession attaches a stored session's headers to the client. A missing
// session is normal: public profiles need none.
func applySession(client *reddit.Client, log logger.Logger) {
	manager, err := session.NewManager("")
	if err != nil {
		log.WithError(err).Debug("session stores unavailable")
		return
	}

	creds, err := manager.Load(sessionName)
	if err != nil {
		if sessionName != "" {
			ui.PrintWarning(fmt.Sprintf("Session %q not found, continuing without one", sessionName))
		}
		return
	}

	client.SetHeaders(creds.Headers())
	log.WithField("session", creds.Name).Info("using stored session")
}

func (a *app) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// finish reports the outcome of a run
func (a *app) finish(err error, accounts int) error {
	switch {
	case err == nil:
		a.notifier.RunComplete(accounts)
		return nil
	case errors.Is(err, scraper.ErrResumeDeclined):
		return nil
	default:
		a.notifier.RunFailed(err)
		if apperrors.IsTransport(err) {
			ui.PrintWarning("Reddit request failed", apperrors.TypeOf(err))
		}
		if a.store.Exists() {
			ui.PrintInfo("Progress saved", a.store.Path())
			ui.PrintInfo("Continue with", "rdscraper resume")
		}
		return err
	}
}

package scraper

import (
	"context"
	"errors"
	"fmt"

	"rdscraper/internal/cache"
	"rdscraper/internal/downloader"
	"rdscraper/pkg/checkpoint"
	"rdscraper/pkg/listing"
	"rdscraper/pkg/logger"
)

// ErrResumeDeclined is returned by Resume when the operator chose to discard
// the interrupted run
var ErrResumeDeclined = errors.New("resume declined")

// Operator answers the questions a run needs from a human
type Operator interface {
	// ConfirmResume is asked once when an interrupted run is found
	ConfirmResume(cp *checkpoint.Checkpoint) bool
	// DownloadCount asks how many items of account to fetch, starting at
	// the 0-based index start of a listing holding total items
	DownloadCount(account string, start, total int) int
}

// Observer is told about finished accounts. It is optional.
type Observer interface {
	AccountComplete(account string, count int, archive string)
	NoImages(account string)
}

// ListingSource produces the filtered listing of an account
type ListingSource interface {
	Fetch(ctx context.Context, account string) ([]listing.CandidateItem, error)
}

// Runner executes the acquisition loop for one account
type Runner interface {
	Run(ctx context.Context, job downloader.Job, cp *checkpoint.Checkpoint) (*downloader.Result, error)
}

// CheckpointStore persists the run state
type CheckpointStore interface {
	Load() (*checkpoint.Checkpoint, error)
	Save(cp *checkpoint.Checkpoint) error
	Clear() error
}

// ListingCache keeps listings stable across a resume
type ListingCache interface {
	Get(account string) (*cache.Entry, error)
	Put(account string, items []listing.CandidateItem) error
	Delete(account string) error
	Clear() error
}

// Scraper is the queue controller of a run
type Scraper struct {
	listings ListingSource
	loop     Runner
	store    CheckpointStore
	operator Operator
	cache    ListingCache
	observer Observer
	logger   logger.Logger
}

// New creates a Scraper
func New(listings ListingSource, loop Runner, store CheckpointStore, operator Operator, log logger.Logger) *Scraper {
	return &Scraper{
		listings: listings,
		loop:     loop,
		store:    store,
		operator: operator,
		logger:   logger.OrDefault(log),
	}
}

// WithCache enables the listing cache
func (s *Scraper) WithCache(c ListingCache) *Scraper {
	s.cache = c
	return s
}

// WithObserver registers an observer for account milestones
func (s *Scraper) WithObserver(o Observer) *Scraper {
	s.observer = o
	return s
}

// StartSingle downloads one account. The checkpoint is cleared once the
// requested count has been fetched, even if the listing holds more items.
func (s *Scraper) StartSingle(ctx context.Context, account string) error {
	if err := s.dropCache(); err != nil {
		return err
	}
	cp := checkpoint.NewSingle(account)
	if err := s.store.Save(cp); err != nil {
		return err
	}
	return s.runSingle(ctx, cp)
}

// StartMultiple downloads accounts one after the other in the given order
func (s *Scraper) StartMultiple(ctx context.Context, accounts []string) error {
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts given")
	}
	if err := s.dropCache(); err != nil {
		return err
	}
	cp := checkpoint.NewMultiple(accounts)
	if err := s.store.Save(cp); err != nil {
		return err
	}
	return s.drain(ctx, cp)
}

// Resume continues an interrupted run. It returns false with a nil error
// when there is nothing to resume, and ErrResumeDeclined after clearing the
// checkpoint when the operator declines.
func (s *Scraper) Resume(ctx context.Context) (bool, error) {
	cp, err := s.store.Load()
	if err != nil {
		return false, err
	}
	if cp == nil {
		return false, nil
	}

	if !s.operator.ConfirmResume(cp) {
		s.logger.WithField("run_id", cp.RunID).Info("resume declined, discarding checkpoint")
		if err := s.clear(); err != nil {
			return false, err
		}
		return false, ErrResumeDeclined
	}

	s.logger.InfoWithFields("resuming run", map[string]interface{}{
		"run_id":          cp.RunID,
		"mode":            string(cp.Mode),
		"current_account": cp.CurrentAccount,
		"current_index":   cp.CurrentIndex,
		"pending":         len(cp.PendingAccounts),
	})

	if cp.Mode == checkpoint.ModeSingle {
		return true, s.runSingle(ctx, cp)
	}
	return true, s.drain(ctx, cp)
}

// Discard drops the stored checkpoint and any cached listings
func (s *Scraper) Discard() error {
	return s.clear()
}

func (s *Scraper) runSingle(ctx context.Context, cp *checkpoint.Checkpoint) error {
	if err := s.processAccount(ctx, cp); err != nil {
		return err
	}
	return s.clear()
}

func (s *Scraper) drain(ctx context.Context, cp *checkpoint.Checkpoint) error {
	for !cp.Done() {
		if !cp.HasCurrent() {
			if _, err := cp.Advance(); err != nil {
				return err
			}
			if err := s.store.Save(cp); err != nil {
				return err
			}
		}

		if err := s.processAccount(ctx, cp); err != nil {
			return err
		}

		cp.FinishAccount()
		if err := s.store.Save(cp); err != nil {
			return err
		}
	}

	s.logger.WithField("run_id", cp.RunID).Info("queue drained")
	return s.clear()
}

// processAccount downloads the current account of cp starting at its saved
// index. An account without images counts as complete.
func (s *Scraper) processAccount(ctx context.Context, cp *checkpoint.Checkpoint) error {
	account := cp.CurrentAccount
	log := s.logger.WithFields(map[string]interface{}{
		"run_id":  cp.RunID,
		"account": account,
	})

	items, err := s.listing(ctx, account)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		log.Warn("no images found")
		if s.observer != nil {
			s.observer.NoImages(account)
		}
		return nil
	}

	start := cp.CurrentIndex
	if start > len(items) {
		log.WarnWithFields("listing shrank since the run was interrupted", map[string]interface{}{
			"saved_index": start,
			"items":       len(items),
		})
		start = len(items)
		cp.CurrentIndex = start
	}
	count := s.operator.DownloadCount(account, start, len(items))

	result, err := s.loop.Run(ctx, downloader.Job{
		Account: account,
		Items:   items,
		Offset:  start,
		Count:   count,
	}, cp)
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(account); err != nil {
			log.WithError(err).Warn("failed to drop cached listing")
		}
	}
	if s.observer != nil {
		s.observer.AccountComplete(account, result.Downloaded, result.Archive)
	}
	return nil
}

// listing returns the account's listing, from the cache when one is stored
func (s *Scraper) listing(ctx context.Context, account string) ([]listing.CandidateItem, error) {
	if s.cache != nil {
		entry, err := s.cache.Get(account)
		if err != nil {
			s.logger.WithError(err).Warn("listing cache unreadable, fetching")
		} else if entry != nil {
			s.logger.DebugWithFields("using cached listing", map[string]interface{}{
				"account":    account,
				"items":      len(entry.Items),
				"fetched_at": entry.FetchedAt,
			})
			return entry.Items, nil
		}
	}

	items, err := s.listings.Fetch(ctx, account)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(items) > 0 {
		if err := s.cache.Put(account, items); err != nil {
			s.logger.WithError(err).Warn("failed to cache listing")
		}
	}
	return items, nil
}

// dropCache empties the listing cache so a new run never reuses listings
// left behind by an earlier one
func (s *Scraper) dropCache() error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Clear(); err != nil {
		return fmt.Errorf("clear listing cache: %w", err)
	}
	return nil
}

func (s *Scraper) clear() error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Clear(); err != nil {
			s.logger.WithError(err).Warn("failed to clear listing cache")
		}
	}
	return nil
}

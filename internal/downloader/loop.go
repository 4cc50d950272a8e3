// Package downloader runs the per-account acquisition loop: fetch each item,
// write it under its sequence number, and persist the checkpoint after every
// item so an interrupted run resumes at the next one.
package downloader

import (
	"context"
	"fmt"
	"time"

	"rdscraper/pkg/archive"
	"rdscraper/pkg/checkpoint"
	"rdscraper/pkg/listing"
	"rdscraper/pkg/logger"
	"rdscraper/pkg/ui"
)

// ItemFetcher retrieves the raw bytes behind a locator
type ItemFetcher interface {
	FetchBytes(ctx context.Context, locator string) ([]byte, error)
}

// ItemStorage persists downloaded items
type ItemStorage interface {
	SaveItem(account string, seq int, ext string, data []byte) (string, error)
	ListItems(account string) ([]string, error)
	CleanupTemp(account string) (int, error)
	AccountDir(account string) string
	ArchivePath(account string) string
}

// CheckpointSaver durably records progress
type CheckpointSaver interface {
	Save(cp *checkpoint.Checkpoint) error
}

// Job describes one pass of the loop over an account's listing
type Job struct {
	Account string
	Items   []listing.CandidateItem
	Offset  int
	Count   int
}

// Result summarizes a finished pass
type Result struct {
	Account    string
	Downloaded int
	Bytes      int64
	Files      []string
	Archive    string
	Archived   int
	Duration   time.Duration
}

// Loop downloads items sequentially. One request, one write and one
// checkpoint save are in flight at any time.
type Loop struct {
	fetcher  ItemFetcher
	storage  ItemStorage
	saver    CheckpointSaver
	packager archive.Packager
	reporter ui.ProgressReporter
	logger   logger.Logger
}

// NewLoop creates a Loop. A nil packager disables archiving and a nil
// reporter disables progress output.
func NewLoop(
	fetcher ItemFetcher,
	storage ItemStorage,
	saver CheckpointSaver,
	packager archive.Packager,
	reporter ui.ProgressReporter,
	log logger.Logger,
) *Loop {
	if reporter == nil {
		reporter = ui.NopReporter{}
	}
	return &Loop{
		fetcher:  fetcher,
		storage:  storage,
		saver:    saver,
		packager: packager,
		reporter: reporter,
		logger:   logger.OrDefault(log),
	}
}

// Clamp limits a requested count to the items remaining after offset.
// Negative requests and offsets past the end yield 0.
func Clamp(count, length, offset int) int {
	remaining := length - offset
	if remaining < 0 {
		remaining = 0
	}
	if count < 0 {
		return 0
	}
	if count > remaining {
		return remaining
	}
	return count
}

// Run downloads job.Count items starting at job.Offset. After each item is
// written, cp.CurrentIndex is set to the item's sequence number and cp is
// saved. Any failure aborts the pass with cp left at the last completed item.
func (l *Loop) Run(ctx context.Context, job Job, cp *checkpoint.Checkpoint) (*Result, error) {
	start := time.Now()
	count := Clamp(job.Count, len(job.Items), job.Offset)
	result := &Result{Account: job.Account}

	log := l.logger.WithFields(map[string]interface{}{
		"account": job.Account,
		"run_id":  cp.RunID,
	})

	if removed, err := l.storage.CleanupTemp(job.Account); err != nil {
		log.WithError(err).Warn("failed to remove leftover temporary files")
	} else if removed > 0 {
		log.DebugWithFields("removed leftover temporary files", map[string]interface{}{"count": removed})
	}

	log.InfoWithFields("starting download", map[string]interface{}{
		"offset":    job.Offset,
		"requested": job.Count,
		"count":     count,
		"available": len(job.Items),
	})

	l.reporter.Start(job.Account, count)
	defer l.reporter.Finish()

	for i := job.Offset; i < job.Offset+count; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item := job.Items[i]
		data, err := l.fetcher.FetchBytes(ctx, item.Locator)
		if err != nil {
			log.WithError(err).ErrorWithFields("item download failed", map[string]interface{}{
				"index":   i,
				"locator": item.Locator,
			})
			return result, fmt.Errorf("download item %d of %s: %w", i+1, job.Account, err)
		}

		path, err := l.storage.SaveItem(job.Account, i+1, item.Extension, data)
		if err != nil {
			return result, fmt.Errorf("save item %d of %s: %w", i+1, job.Account, err)
		}

		cp.CurrentIndex = i + 1
		if err := l.saver.Save(cp); err != nil {
			return result, fmt.Errorf("save checkpoint after item %d: %w", i+1, err)
		}

		result.Downloaded++
		result.Bytes += int64(len(data))
		result.Files = append(result.Files, path)

		l.reporter.Advance(1)
		logger.LogAccountProgress(log, job.Account, i+1-job.Offset, count)
	}

	if err := l.pack(ctx, job.Account, result); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)
	log.InfoWithFields("download complete", map[string]interface{}{
		"downloaded": result.Downloaded,
		"bytes":      result.Bytes,
		"duration":   result.Duration,
	})

	return result, nil
}

func (l *Loop) pack(ctx context.Context, account string, result *Result) error {
	if l.packager == nil {
		return nil
	}

	items, err := l.storage.ListItems(account)
	if err != nil {
		return fmt.Errorf("list items of %s: %w", account, err)
	}
	if len(items) == 0 {
		return nil
	}

	dest := l.storage.ArchivePath(account)
	n, err := l.packager.Pack(ctx, l.storage.AccountDir(account), dest)
	if err != nil {
		return fmt.Errorf("archive %s: %w", account, err)
	}
	result.Archive = dest
	result.Archived = n
	return nil
}

package listing

import (
	"context"
	"fmt"
	"strings"

	"rdscraper/pkg/logger"
)

// DefaultPageSize is the number of entries requested per listing page
const DefaultPageSize = 100

// SupportedExtensions are matched as exact, case-sensitive locator suffixes
var SupportedExtensions = []string{"jpg", "jpeg", "png", "gif"}

// Page is one page of a remote listing. An empty NextCursor marks the end.
type Page struct {
	Locators   []string
	NextCursor string
}

// Driver is the remote capability the engine depends on
type Driver interface {
	FetchPage(ctx context.Context, account, cursor string, limit int) (*Page, error)
	FetchBytes(ctx context.Context, locator string) ([]byte, error)
}

// CandidateItem is a downloadable media reference
type CandidateItem struct {
	Locator   string `json:"locator"`
	Extension string `json:"extension"`
}

// ExtensionOf returns the supported extension locator ends with, if any
func ExtensionOf(locator string) (string, bool) {
	for _, ext := range SupportedExtensions {
		if strings.HasSuffix(locator, ext) {
			return ext, true
		}
	}
	return "", false
}

// Filter keeps the locators that end in a supported extension, in order
func Filter(locators []string) []CandidateItem {
	items := make([]CandidateItem, 0, len(locators))
	for _, loc := range locators {
		if ext, ok := ExtensionOf(loc); ok {
			items = append(items, CandidateItem{Locator: loc, Extension: ext})
		}
	}
	return items
}

// Fetcher walks a Driver's pages for an account
type Fetcher struct {
	driver   Driver
	pageSize int
	logger   logger.Logger
}

// NewFetcher creates a Fetcher. A non-positive pageSize selects DefaultPageSize.
func NewFetcher(driver Driver, pageSize int, log logger.Logger) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{
		driver:   driver,
		pageSize: pageSize,
		logger:   logger.OrDefault(log),
	}
}

// Fetch returns the complete filtered listing for account. Pagination stops
// at the first page with no entries or without a next cursor. Any page error
// aborts the fetch; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, account string) ([]CandidateItem, error) {
	var (
		items  []CandidateItem
		cursor string
		pages  int
	)

	for {
		page, err := f.driver.FetchPage(ctx, account, cursor, f.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch listing page %d for %s: %w", pages+1, account, err)
		}
		pages++

		if len(page.Locators) == 0 {
			break
		}

		accepted := Filter(page.Locators)
		items = append(items, accepted...)

		f.logger.DebugWithFields("listing page fetched", map[string]interface{}{
			"account":  account,
			"page":     pages,
			"entries":  len(page.Locators),
			"accepted": len(accepted),
		})

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	f.logger.InfoWithFields("listing complete", map[string]interface{}{
		"account": account,
		"pages":   pages,
		"items":   len(items),
	})

	return items, nil
}

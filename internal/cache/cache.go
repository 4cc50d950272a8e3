// Package cache keeps fetched account listings in a bbolt database so that a
// resumed run sees the same item order as the run that was interrupted.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"rdscraper/pkg/listing"
)

var buckets = struct {
	Metadata []byte
	Listings []byte
}{
	Metadata: []byte("__metadata__"),
	Listings: []byte("listings"),
}

var versionKey = []byte("version")

const currentVersion = 1

// Entry is a cached listing
type Entry struct {
	Account   string                  `json:"account"`
	Items     []listing.CandidateItem `json:"items"`
	FetchedAt time.Time               `json:"fetched_at"`
}

// ListingCache stores one listing per account
type ListingCache struct {
	db *bbolt.DB
}

// Open opens or creates the cache database at path
func Open(path string) (*ListingCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open listing cache: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		metadata, err := tx.CreateBucketIfNotExists(buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(buckets.Listings); err != nil {
			return err
		}

		var version int
		if raw := metadata.Get(versionKey); raw != nil {
			if err := json.Unmarshal(raw, &version); err != nil {
				return err
			}
		}
		if version > currentVersion {
			return fmt.Errorf("cache version %d is newer than supported %d", version, currentVersion)
		}

		raw, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(versionKey, raw)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize listing cache: %w", err)
	}

	return &ListingCache{db: db}, nil
}

// Get returns the cached listing for account, or nil if there is none
func (c *ListingCache) Get(account string) (*Entry, error) {
	var entry *Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(buckets.Listings).Get([]byte(account))
		if raw == nil {
			return nil
		}
		entry = &Entry{}
		return json.Unmarshal(raw, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("read cached listing for %s: %w", account, err)
	}
	return entry, nil
}

// Put stores the listing for account, replacing any previous one
func (c *ListingCache) Put(account string, items []listing.CandidateItem) error {
	data, err := json.Marshal(Entry{Account: account, Items: items, FetchedAt: time.Now()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(buckets.Listings).Put([]byte(account), data)
	})
}

// Delete drops the cached listing for account
func (c *ListingCache) Delete(account string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(buckets.Listings).Delete([]byte(account))
	})
}

// Clear drops every cached listing
func (c *ListingCache) Clear() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(buckets.Listings); err != nil {
			return err
		}
		_, err := tx.CreateBucket(buckets.Listings)
		return err
	})
}

// Accounts returns the accounts with a cached listing
func (c *ListingCache) Accounts() ([]string, error) {
	var accounts []string
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(buckets.Listings).ForEach(func(k, v []byte) error {
			accounts = append(accounts, string(k))
			return nil
		})
	})
	return accounts, err
}

// Close closes the underlying database
func (c *ListingCache) Close() error {
	return c.db.Close()
}

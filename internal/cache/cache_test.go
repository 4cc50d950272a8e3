package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdscraper/pkg/listing"
)

func openTestCache(t *testing.T) (*ListingCache, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.db")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, path
}

func TestPutGetDelete(t *testing.T) {
	c, _ := openTestCache(t)

	entry, err := c.Get("alice")
	require.NoError(t, err)
	assert.Nil(t, entry)

	items := []listing.CandidateItem{
		{Locator: "https://i.redd.it/1.jpg", Extension: "jpg"},
		{Locator: "https://i.redd.it/2.png", Extension: "png"},
	}
	require.NoError(t, c.Put("alice", items))

	entry, err = c.Get("alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "alice", entry.Account)
	assert.Equal(t, items, entry.Items)
	assert.False(t, entry.FetchedAt.IsZero())

	require.NoError(t, c.Delete("alice"))
	entry, err = c.Get("alice")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, c.Delete("never-cached"))
}

func TestClear(t *testing.T) {
	c, _ := openTestCache(t)

	require.NoError(t, c.Put("a", nil))
	require.NoError(t, c.Put("b", []listing.CandidateItem{{Locator: "x.gif", Extension: "gif"}}))

	accounts, err := c.Accounts()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, accounts)

	require.NoError(t, c.Clear())

	accounts, err = c.Accounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.db")

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Put("alice", []listing.CandidateItem{{Locator: "1.jpg", Extension: "jpg"}}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	entry, err := c.Get("alice")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, entry.Items, 1)
}

package scraper_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdscraper/internal/downloader"
	"rdscraper/pkg/archive"
	"rdscraper/pkg/checkpoint"
	"rdscraper/pkg/errors"
	"rdscraper/pkg/listing"
	"rdscraper/pkg/logger"
	"rdscraper/pkg/reddit"
	"rdscraper/pkg/scraper"
	"rdscraper/pkg/storage"
)

// mockRedditServer serves paginated submitted.json listings and image bytes.
// Cursors are "page-N"; images live under /img/.
type mockRedditServer struct {
	server *httptest.Server

	mu       sync.Mutex
	pages    map[string][][]string
	failures map[string]int
	requests []string
}

func newMockRedditServer(t *testing.T) *mockRedditServer {
	m := &mockRedditServer{
		pages:    make(map[string][][]string),
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/user/", m.handleListing)
	mux.HandleFunc("/img/", m.handleImage)
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

// addAccount registers pages of image names for account
func (m *mockRedditServer) addAccount(account string, pages ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[account] = pages
}

// failNext makes the next n requests for path answer 500
func (m *mockRedditServer) failNext(path string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = n
}

func (m *mockRedditServer) imageURL(name string) string {
	return m.server.URL + "/img/" + name
}

func (m *mockRedditServer) imageRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.requests {
		if strings.HasPrefix(r, "/img/") {
			out = append(out, strings.TrimPrefix(r, "/img/"))
		}
	}
	return out
}

func (m *mockRedditServer) record(r *http.Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, r.URL.Path)
	if m.failures[r.URL.Path] > 0 {
		m.failures[r.URL.Path]--
		return false
	}
	return true
}

func (m *mockRedditServer) handleListing(w http.ResponseWriter, r *http.Request) {
	if !m.record(r) {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[2] != "submitted.json" {
		http.NotFound(w, r)
		return
	}
	account := parts[1]

	m.mu.Lock()
	pages, ok := m.pages[account]
	m.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	index := 0
	if after := r.URL.Query().Get("after"); after != "" {
		index, _ = strconv.Atoi(strings.TrimPrefix(after, "page-"))
	}

	type child struct {
		Kind string `json:"kind"`
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	var children []child
	var after interface{}
	if index < len(pages) {
		for _, name := range pages[index] {
			c := child{Kind: "t3"}
			c.Data.URL = m.imageURL(name)
			children = append(children, c)
		}
		// The cursor stays non-empty on the last page; an empty page ends
		// the listing.
		after = fmt.Sprintf("page-%d", index+1)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"kind": "Listing",
		"data": map[string]interface{}{"after": after, "children": children},
	})
}

func (m *mockRedditServer) handleImage(w http.ResponseWriter, r *http.Request) {
	if !m.record(r) {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	fmt.Fprintf(w, "bytes of %s", strings.TrimPrefix(r.URL.Path, "/img/"))
}

// autoOperator confirms resumes and downloads a fixed count, or everything
type autoOperator struct {
	count int
}

func (o *autoOperator) ConfirmResume(*checkpoint.Checkpoint) bool { return true }

func (o *autoOperator) DownloadCount(account string, start, total int) int {
	if o.count > 0 {
		return o.count
	}
	return total - start
}

type environment struct {
	server  *mockRedditServer
	storage *storage.Manager
	store   *checkpoint.Store
	dir     string
}

func newEnvironment(t *testing.T) *environment {
	t.Helper()
	dir := t.TempDir()

	sm, err := storage.NewManager(filepath.Join(dir, "downloads"))
	require.NoError(t, err)
	store, err := checkpoint.NewStore(filepath.Join(dir, "checkpoint.json"), logger.NewNopLogger())
	require.NoError(t, err)

	return &environment{server: newMockRedditServer(t), storage: sm, store: store, dir: dir}
}

// newScraper wires the production components against the mock server
func (e *environment) newScraper(op scraper.Operator) *scraper.Scraper {
	log := logger.NewNopLogger()
	client := reddit.NewClient(reddit.Options{
		BaseURL:   e.server.server.URL,
		UserAgent: "rdscraper-integration/1.0",
		Timeout:   5 * time.Second,
	}, log)
	fetcher := listing.NewFetcher(client, listing.DefaultPageSize, log)
	loop := downloader.NewLoop(client, e.storage, e.store, archive.NewZipPackager(log), nil, log)
	return scraper.New(fetcher, loop, e.store, op, log)
}

func TestEndToEndSingleAccount(t *testing.T) {
	env := newEnvironment(t)
	env.server.addAccount("alice",
		[]string{"1.jpg", "clip.mp4", "2.png"},
		[]string{"3.gif", "4.JPG", "5.jpeg"},
		[]string{},
		[]string{"never.jpg"},
	)

	err := env.newScraper(&autoOperator{}).StartSingle(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{"1.jpg", "2.png", "3.gif", "5.jpeg"}, env.server.imageRequests(),
		"unsupported suffixes are skipped and pagination stops at the empty page")

	names, err := env.storage.ListItems("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"image_1.jpg", "image_2.png", "image_3.gif", "image_4.jpeg"}, names)
	assert.False(t, env.store.Exists())

	zr, err := zip.OpenReader(env.storage.ArchivePath("alice"))
	require.NoError(t, err)
	defer zr.Close()
	assert.Len(t, zr.File, 4)
}

func TestEndToEndCrashAndResume(t *testing.T) {
	env := newEnvironment(t)
	env.server.addAccount("anna", []string{"a1.jpg", "a2.jpg"})
	env.server.addAccount("bert", []string{"b1.jpg", "b2.jpg", "b3.jpg"})
	env.server.addAccount("cleo", []string{"c1.png"})
	env.server.failNext("/img/b2.jpg", 1)

	err := env.newScraper(&autoOperator{}).StartMultiple(context.Background(), []string{"anna", "bert", "cleo"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeServerError, errors.TypeOf(err))

	cp, err := env.store.Load()
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, "bert", cp.CurrentAccount)
	assert.Equal(t, 1, cp.CurrentIndex)
	assert.Equal(t, []string{"cleo"}, cp.PendingAccounts)

	resumed, err := env.newScraper(&autoOperator{}).Resume(context.Background())
	require.NoError(t, err)
	assert.True(t, resumed)

	assert.Equal(t,
		[]string{"a1.jpg", "a2.jpg", "b1.jpg", "b2.jpg", "b2.jpg", "b3.jpg", "c1.png"},
		env.server.imageRequests(),
		"only the failed item is fetched again")
	assert.False(t, env.store.Exists())

	for account, want := range map[string]int{"anna": 2, "bert": 3, "cleo": 1} {
		names, err := env.storage.ListItems(account)
		require.NoError(t, err)
		assert.Len(t, names, want, account)
		assert.FileExists(t, env.storage.ArchivePath(account))
	}
}

func TestEndToEndListingFailure(t *testing.T) {
	env := newEnvironment(t)
	env.server.addAccount("dave", []string{"d1.jpg"})
	env.server.failNext("/user/dave/submitted.json", 1)

	err := env.newScraper(&autoOperator{}).StartSingle(context.Background(), "dave")
	require.Error(t, err)
	assert.True(t, env.store.Exists(), "the checkpoint survives a failed listing")

	resumed, err := env.newScraper(&autoOperator{}).Resume(context.Background())
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.FileExists(t, env.storage.ArchivePath("dave"))
}

func TestEndToEndUnknownAccount(t *testing.T) {
	env := newEnvironment(t)

	err := env.newScraper(&autoOperator{}).StartSingle(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
}

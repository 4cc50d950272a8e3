package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdscraper/pkg/errors"
	"rdscraper/pkg/logger"
)

func listingJSON(after string, urls ...string) string {
	children := ""
	for i, u := range urls {
		if i > 0 {
			children += ","
		}
		children += fmt.Sprintf(`{"kind":"t3","data":{"id":"p%d","url":%q}}`, i, u)
	}
	afterJSON := "null"
	if after != "" {
		afterJSON = fmt.Sprintf("%q", after)
	}
	return fmt.Sprintf(`{"kind":"Listing","data":{"after":%s,"children":[%s]}}`, afterJSON, children)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	client := NewClient(Options{
		BaseURL:   server.URL,
		UserAgent: "rdscraper-test/1.0",
		Cookie:    "reddit_session=abc",
		Timeout:   2 * time.Second,
	}, log)
	return client, log
}

func TestFetchPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/alice/submitted.json", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "t3_prev", r.URL.Query().Get("after"))
		assert.Equal(t, "rdscraper-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "reddit_session=abc", r.Header.Get("Cookie"))

		fmt.Fprint(w, listingJSON("t3_next", "https://i.redd.it/a.jpg", "https://v.redd.it/b"))
	})

	page, err := client.FetchPage(context.Background(), "alice", "t3_prev", 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://i.redd.it/a.jpg", "https://v.redd.it/b"}, page.Locators)
	assert.Equal(t, "t3_next", page.NextCursor)
}

func TestFetchPageNullAfter(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingJSON("", "https://i.redd.it/a.png"))
	})

	page, err := client.FetchPage(context.Background(), "alice", "", 100)
	require.NoError(t, err)
	assert.Empty(t, page.NextCursor)
	assert.Len(t, page.Locators, 1)
}

func TestFetchPageErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errors.ErrorType
	}{
		{"not found", http.StatusNotFound, "", errors.ErrorTypeNotFound},
		{"forbidden", http.StatusForbidden, "", errors.ErrorTypeAuth},
		{"rate limited", http.StatusTooManyRequests, "", errors.ErrorTypeRateLimit},
		{"server error", http.StatusServiceUnavailable, "", errors.ErrorTypeServerError},
		{"malformed body", http.StatusOK, `{"data":`, errors.ErrorTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.FetchPage(context.Background(), "alice", "", 100)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "requests are never retried")
		})
	}
}

func TestFetchBytes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("\x89PNG fake"))
	})

	data, err := client.FetchBytes(context.Background(), client.baseURL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG fake"), data)

	_, err = client.FetchBytes(context.Background(), client.baseURL+"/missing.jpg")
	assert.Equal(t, errors.ErrorTypeNotFound, errors.TypeOf(err))
}

func TestFetchBytesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, Timeout: 20 * time.Millisecond}, logger.NewNopLogger())

	_, err := client.FetchBytes(context.Background(), server.URL+"/slow.jpg")
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeTimeout, errors.TypeOf(err))
}

func TestFetchBytesCanceledContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchBytes(ctx, client.baseURL+"/a.jpg")
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Options{}, logger.NewNopLogger())

	assert.Equal(t, BaseURL, client.baseURL)
	assert.Equal(t, DefaultUserAgent, client.headers["User-Agent"])
	_, hasCookie := client.headers["Cookie"]
	assert.False(t, hasCookie)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

// Package session stores the optional Reddit session used to authenticate
// listing and item requests. Public profiles download without one.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// DefaultName is the session name used when none is given
const DefaultName = "default"

// CookieName is the cookie Reddit uses for a logged-in session
const CookieName = "reddit_session"

var (
	ErrNotFound         = errors.New("session not found")
	ErrInvalid          = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Credentials is a saved browser session
type Credentials struct {
	Name         string    `json:"name"`
	Cookie       string    `json:"cookie"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CookieHeader returns the Cookie header value. A bare token is taken to be
// the reddit_session value; anything containing "=" is used verbatim.
func (c *Credentials) CookieHeader() string {
	cookie := strings.TrimSpace(c.Cookie)
	if cookie == "" || strings.Contains(cookie, "=") {
		return cookie
	}
	return CookieName + "=" + cookie
}

// Headers returns the request headers this session contributes
func (c *Credentials) Headers() map[string]string {
	headers := make(map[string]string)
	if cookie := c.CookieHeader(); cookie != "" {
		headers["Cookie"] = cookie
	}
	if c.UserAgent != "" {
		headers["User-Agent"] = c.UserAgent
	}
	return headers
}

// Masked returns a copy safe to print
func (c *Credentials) Masked() *Credentials {
	return &Credentials{
		Name:         c.Name,
		Cookie:       maskString(c.Cookie),
		UserAgent:    c.UserAgent,
		LastModified: c.LastModified,
	}
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Store is a place sessions can be kept
type Store interface {
	Save(creds *Credentials) error
	Load(name string) (*Credentials, error)
	List() ([]*Credentials, error)
	Delete(name string) error
	Exists(name string) bool
}

// Manager consults several stores in order of preference
type Manager struct {
	stores []Store
}

// NewManager builds the default chain: system keyring when available, an
// encrypted file in dir, then the environment.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		var err error
		dir, err = ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
	}

	var stores []Store
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	fileStore, err := NewEncryptedFileStore(filepath.Join(dir, "sessions.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fileStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a Manager over explicit stores
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Save writes creds to the first store that accepts them
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil || strings.TrimSpace(creds.Cookie) == "" {
		return fmt.Errorf("%w: cookie is required", ErrInvalid)
	}
	if creds.Name == "" {
		creds.Name = DefaultName
	}
	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Save(creds)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Load returns the named session from the first store holding it
func (m *Manager) Load(name string) (*Credentials, error) {
	if name == "" {
		name = DefaultName
	}
	for _, store := range m.stores {
		if creds, err := store.Load(name); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// List merges all stores, keeping the newest copy of each name
func (m *Manager) List() ([]*Credentials, error) {
	byName := make(map[string]*Credentials)
	for _, store := range m.stores {
		list, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range list {
			if existing, ok := byName[creds.Name]; !ok || creds.LastModified.After(existing.LastModified) {
				byName[creds.Name] = creds
			}
		}
	}

	result := make([]*Credentials, 0, len(byName))
	for _, creds := range byName {
		result = append(result, creds)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Delete removes the named session from every store that has it
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultName
	}

	var deleted bool
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// ConfigDir returns the per-user configuration directory, creating it
func ConfigDir() (string, error) {
	var dir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "rdscraper")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "rdscraper")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "rdscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "rdscraper")
		}
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

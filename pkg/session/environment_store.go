package session

import (
	"os"
	"time"
)

const (
	EnvCookie    = "RDSCRAPER_SESSION_COOKIE"
	EnvUserAgent = "RDSCRAPER_SESSION_USER_AGENT"
)

// EnvironmentStore reads a single read-only session from the environment.
// It answers to every name.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Save(creds *Credentials) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Load(name string) (*Credentials, error) {
	cookie := os.Getenv(EnvCookie)
	if cookie == "" {
		return nil, ErrNotFound
	}
	if name == "" {
		name = DefaultName
	}
	return &Credentials{
		Name:         name,
		Cookie:       cookie,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Load(DefaultName)
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvCookie) != ""
}

package session

import "sync"

// MockStore keeps sessions in memory. Setting one of the error fields makes
// the matching method fail.
type MockStore struct {
	sessions map[string]*Credentials
	mu       sync.RWMutex

	SaveError   error
	LoadError   error
	DeleteError error
}

func NewMockStore() *MockStore {
	return &MockStore{sessions: make(map[string]*Credentials)}
}

func (m *MockStore) Save(creds *Credentials) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	if creds == nil || creds.Name == "" {
		return ErrInvalid
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c := *creds
	m.sessions[creds.Name] = &c
	return nil
}

func (m *MockStore) Load(name string) (*Credentials, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	creds, ok := m.sessions[name]
	if !ok {
		return nil, ErrNotFound
	}
	c := *creds
	return &c, nil
}

func (m *MockStore) List() ([]*Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Credentials, 0, len(m.sessions))
	for _, creds := range m.sessions {
		c := *creds
		list = append(list, &c)
	}
	return list, nil
}

func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[name]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, name)
	return nil
}

func (m *MockStore) Exists(name string) bool {
	_, err := m.Load(name)
	return err == nil
}

// Count returns the number of stored sessions
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

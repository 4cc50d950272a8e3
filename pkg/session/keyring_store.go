package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "rdscraper"
	keyringPrefix  = "reddit_"
)

// KeyringStore keeps sessions in the system keychain. The keychain cannot
// be enumerated, so the store keeps an index entry of saved names.
type KeyringStore struct{}

const indexKey = "__sessions__"

// NewKeyringStore returns an error when no keychain is reachable
func NewKeyringStore() (*KeyringStore, error) {
	probe := "probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(keyringService, probe)
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Save(creds *Credentials) error {
	if creds == nil || creds.Name == "" {
		return ErrInvalid
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+creds.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(func(names map[string]bool) { names[creds.Name] = true })
}

func (k *KeyringStore) Load(name string) (*Credentials, error) {
	if name == "" {
		return nil, ErrInvalid
	}

	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &creds, nil
}

func (k *KeyringStore) List() ([]*Credentials, error) {
	names, err := k.index()
	if err != nil {
		return nil, err
	}

	var list []*Credentials
	for name := range names {
		if creds, err := k.Load(name); err == nil {
			list = append(list, creds)
		}
	}
	return list, nil
}

func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalid
	}
	if err := keyring.Delete(keyringService, keyringPrefix+name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(func(names map[string]bool) { delete(names, name) })
}

func (k *KeyringStore) Exists(name string) bool {
	_, err := k.Load(name)
	return err == nil
}

func (k *KeyringStore) index() (map[string]bool, error) {
	names := make(map[string]bool)
	raw, err := keyring.Get(keyringService, indexKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return names, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return names, nil
	}
	for _, name := range list {
		names[name] = true
	}
	return names, nil
}

func (k *KeyringStore) updateIndex(mutate func(map[string]bool)) error {
	names, err := k.index()
	if err != nil {
		return err
	}
	mutate(names)

	list := make([]string, 0, len(names))
	for name := range names {
		list = append(list, name)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, indexKey, string(data))
}

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated passphrase of the encrypted store
const EnvPassphrase = "RDSCRAPER_PASSPHRASE"

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// EncryptedFileStore keeps sessions in an AES-GCM encrypted file. The key is
// derived with PBKDF2 from RDSCRAPER_PASSPHRASE or, failing that, from a
// random passphrase generated once and kept beside the file.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

type sealedFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a store at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	passphrase, err := loadPassphrase(filepath.Join(dir, ".passphrase"))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Save(creds *Credentials) error {
	if creds == nil || creds.Name == "" {
		return ErrInvalid
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, salt, err := e.read()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load existing sessions: %w", err)
	}
	if sessions == nil {
		sessions = make(map[string]Credentials)
	}
	sessions[creds.Name] = *creds

	return e.write(sessions, salt)
}

func (e *EncryptedFileStore) Load(name string) (*Credentials, error) {
	if name == "" {
		return nil, ErrInvalid
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, _, err := e.read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	creds, ok := sessions[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &creds, nil
}

func (e *EncryptedFileStore) List() ([]*Credentials, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions, _, err := e.read()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Credentials{}, nil
		}
		return nil, err
	}

	list := make([]*Credentials, 0, len(sessions))
	for _, creds := range sessions {
		c := creds
		list = append(list, &c)
	}
	return list, nil
}

func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalid
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, salt, err := e.read()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	if _, ok := sessions[name]; !ok {
		return ErrNotFound
	}
	delete(sessions, name)

	if len(sessions) == 0 {
		return os.Remove(e.path)
	}
	return e.write(sessions, salt)
}

func (e *EncryptedFileStore) Exists(name string) bool {
	creds, err := e.Load(name)
	return err == nil && creds != nil
}

// read decrypts the file and returns its sessions and salt
func (e *EncryptedFileStore) read() (map[string]Credentials, []byte, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, nil, err
	}

	var sealed sealedFile
	if err := json.Unmarshal(content, &sealed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(sealed.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(sealed.Encrypted)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode session data: %w", err)
	}

	plaintext, err := decrypt(ciphertext, deriveKey(e.passphrase, salt))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt session file: %w", err)
	}

	var sessions map[string]Credentials
	if err := json.Unmarshal(plaintext, &sessions); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sessions: %w", err)
	}
	return sessions, salt, nil
}

func (e *EncryptedFileStore) write(sessions map[string]Credentials, salt []byte) error {
	if len(salt) == 0 {
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plaintext, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	ciphertext, err := encrypt(plaintext, deriveKey(e.passphrase, salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt sessions: %w", err)
	}

	content, err := json.MarshalIndent(sealedFile{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	tempFile := e.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tempFile, e.path)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
}

func loadPassphrase(path string) (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}

	if content, err := os.ReadFile(path); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(path, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

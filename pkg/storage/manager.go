package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TempSuffix marks files that are still being written
const TempSuffix = ".tmp"

// Manager handles file storage for all accounts under one base directory
type Manager struct {
	baseDir string
}

// NewManager creates a new storage manager
func NewManager(baseDir string) (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{baseDir: baseDir}, nil
}

// ItemFilename returns the file name for the item at 1-based position seq
func ItemFilename(seq int, ext string) string {
	return fmt.Sprintf("image_%d.%s", seq, ext)
}

// AccountDir returns the directory holding an account's items
func (m *Manager) AccountDir(account string) string {
	return filepath.Join(m.baseDir, account)
}

// ArchivePath returns where the account's archive is written
func (m *Manager) ArchivePath(account string) string {
	return filepath.Join(m.baseDir, account+".zip")
}

// SaveItem writes data as the item at position seq and returns the final path.
// An existing file with the same name is replaced.
func (m *Manager) SaveItem(account string, seq int, ext string, data []byte) (string, error) {
	dir := m.AccountDir(account)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create account directory: %w", err)
	}

	filename := filepath.Join(dir, ItemFilename(seq, ext))
	tempFile := filename + TempSuffix

	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := out.Write(data); err != nil {
		out.Close()
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write item data: %w", err)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to sync item file: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return filename, nil
}

// ListItems returns the completed item files of an account, sorted by name.
// Temporary files are skipped. A missing directory yields an empty list.
func (m *Manager) ListItems(account string) ([]string, error) {
	entries, err := os.ReadDir(m.AccountDir(account))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), TempSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// CleanupTemp removes temporary files left in an account directory by an
// interrupted write and returns how many were removed.
func (m *Manager) CleanupTemp(account string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.AccountDir(account), "*"+TempSuffix))
	if err != nil {
		return 0, err
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return len(matches), nil
}

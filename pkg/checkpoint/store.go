package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"rdscraper/pkg/logger"
)

// FileName is the name of the checkpoint file inside the data directory
const FileName = "checkpoint.json"

// Store reads and writes the single checkpoint file
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store at path. An empty path selects DefaultPath.
func NewStore(path string, log logger.Logger) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Store{
		path:   path,
		logger: logger.OrDefault(log),
	}, nil
}

// DefaultPath returns the checkpoint location inside the platform data directory
func DefaultPath() (string, error) {
	dataDir, err := DataDirectory()
	if err != nil {
		return "", fmt.Errorf("failed to get data directory: %w", err)
	}
	return filepath.Join(dataDir, FileName), nil
}

// Path returns the checkpoint file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored checkpoint, or nil if none exists. A file that
// cannot be read or decoded is treated as absent; undecodable files are
// moved aside so the next run starts clean.
func (s *Store) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.logger.WarnWithFields("checkpoint unreadable, ignoring", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return nil, nil
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.quarantine(err)
		return nil, nil
	}
	if err := cp.Validate(); err != nil {
		s.quarantine(err)
		return nil, nil
	}
	if cp.PendingAccounts == nil {
		cp.PendingAccounts = []string{}
	}

	s.logger.DebugWithFields("checkpoint loaded", map[string]interface{}{
		"mode":            string(cp.Mode),
		"current_account": cp.CurrentAccount,
		"current_index":   cp.CurrentIndex,
		"pending":         len(cp.PendingAccounts),
		"run_id":          cp.RunID,
	})

	return &cp, nil
}

// Save atomically replaces the stored checkpoint with a full snapshot of cp
func (s *Store) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()
	if cp.Version == 0 {
		cp.Version = CurrentVersion
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"current_account": cp.CurrentAccount,
		"current_index":   cp.CurrentIndex,
		"pending":         len(cp.PendingAccounts),
	})

	return nil
}

// Clear removes the checkpoint. Clearing an absent checkpoint is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	s.logger.Debug("checkpoint cleared")
	return nil
}

// Exists checks if a checkpoint file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func (s *Store) quarantine(cause error) {
	corruptPath := s.path + ".corrupt"
	fields := map[string]interface{}{
		"path":  s.path,
		"error": cause.Error(),
	}
	if err := os.Rename(s.path, corruptPath); err != nil {
		fields["quarantine_error"] = err.Error()
	} else {
		fields["moved_to"] = corruptPath
	}
	s.logger.WarnWithFields("checkpoint corrupt, starting fresh", fields)
}

// DataDirectory returns the appropriate data directory for the current OS
func DataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "rdscraper")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "rdscraper")
	default:
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "rdscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "rdscraper")
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

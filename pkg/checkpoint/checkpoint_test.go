package checkpoint

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"rdscraper/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()
	store, err := NewStore(filepath.Join(t.TempDir(), "state", FileName), log)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store, log
}

func TestStore(t *testing.T) {
	t.Run("LoadAbsent", func(t *testing.T) {
		store, _ := newTestStore(t)

		cp, err := store.Load()
		if err != nil {
			t.Fatalf("Load on empty store failed: %v", err)
		}
		if cp != nil {
			t.Fatalf("Expected no checkpoint, got %+v", cp)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store, _ := newTestStore(t)

		cp := NewMultiple([]string{"a", "b", "c"})
		if _, err := cp.Advance(); err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		cp.CurrentIndex = 7

		if err := store.Save(cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Mode != ModeMultiple || loaded.CurrentAccount != "a" || loaded.CurrentIndex != 7 {
			t.Errorf("Unexpected checkpoint: %+v", loaded)
		}
		if !reflect.DeepEqual(loaded.PendingAccounts, []string{"b", "c"}) {
			t.Errorf("Expected pending [b c], got %v", loaded.PendingAccounts)
		}
		if loaded.RunID != cp.RunID {
			t.Errorf("Expected run id %s, got %s", cp.RunID, loaded.RunID)
		}
	})

	t.Run("SaveOverwritesWholeSnapshot", func(t *testing.T) {
		store, _ := newTestStore(t)

		cp := NewMultiple([]string{"a", "b"})
		_, _ = cp.Advance()
		if err := store.Save(cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		cp.FinishAccount()
		_, _ = cp.Advance()
		if err := store.Save(cp); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, _ := store.Load()
		if loaded.CurrentAccount != "b" || len(loaded.PendingAccounts) != 0 {
			t.Errorf("Expected current b with empty queue, got %+v", loaded)
		}
		if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
			t.Error("Temporary file left behind after save")
		}
	})

	t.Run("ClearIsIdempotent", func(t *testing.T) {
		store, _ := newTestStore(t)

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear on absent checkpoint failed: %v", err)
		}

		if err := store.Save(NewSingle("alice")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if !store.Exists() {
			t.Fatal("Expected checkpoint to exist")
		}

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Second clear failed: %v", err)
		}
		if store.Exists() {
			t.Error("Expected checkpoint to be gone")
		}
	})

	t.Run("CorruptFileTreatedAsAbsent", func(t *testing.T) {
		store, log := newTestStore(t)

		if err := os.WriteFile(store.Path(), []byte(`{"mode": "single", "current_`), 0644); err != nil {
			t.Fatalf("Failed to write corrupt file: %v", err)
		}

		cp, err := store.Load()
		if err != nil {
			t.Fatalf("Load returned error for corrupt file: %v", err)
		}
		if cp != nil {
			t.Fatalf("Expected nil checkpoint, got %+v", cp)
		}
		if store.Exists() {
			t.Error("Corrupt file should have been moved aside")
		}
		if _, err := os.Stat(store.Path() + ".corrupt"); err != nil {
			t.Errorf("Expected quarantined file: %v", err)
		}
		if len(log.GetMessagesByLevel("WARN")) == 0 {
			t.Error("Expected a warning to be logged")
		}
	})

	t.Run("InvalidRecordTreatedAsAbsent", func(t *testing.T) {
		store, _ := newTestStore(t)

		content := `{"mode":"single","current_account":"","current_index":0,"pending_accounts":[]}`
		if err := os.WriteFile(store.Path(), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		cp, err := store.Load()
		if err != nil || cp != nil {
			t.Fatalf("Expected absent checkpoint, got %+v, %v", cp, err)
		}
	})

	t.Run("TraversingAccountQuarantined", func(t *testing.T) {
		store, _ := newTestStore(t)

		content := `{"mode":"single","current_account":"../x","current_index":1,"pending_accounts":[]}`
		if err := os.WriteFile(store.Path(), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}

		cp, err := store.Load()
		if err != nil || cp != nil {
			t.Fatalf("Expected absent checkpoint, got %+v, %v", cp, err)
		}
		if _, err := os.Stat(store.Path() + ".corrupt"); err != nil {
			t.Errorf("Expected quarantined file: %v", err)
		}
	})
}

func TestCheckpointTransitions(t *testing.T) {
	cp := NewMultiple([]string{"a", "b"})
	if cp.HasCurrent() || cp.Done() {
		t.Fatal("Fresh multiple checkpoint should have a queue and no current account")
	}

	for _, want := range []string{"a", "b"} {
		got, err := cp.Advance()
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
		cp.CurrentIndex = 3
		cp.FinishAccount()
		if cp.CurrentIndex != 0 || cp.HasCurrent() {
			t.Errorf("FinishAccount did not reset: %+v", cp)
		}
	}

	if !cp.Done() {
		t.Error("Expected checkpoint to be done")
	}
	if _, err := cp.Advance(); err != ErrNoAccount {
		t.Errorf("Expected ErrNoAccount, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cp      *Checkpoint
		wantErr bool
	}{
		{"single", NewSingle("alice"), false},
		{"multiple", NewMultiple([]string{"a"}), false},
		{"single without account", &Checkpoint{Mode: ModeSingle}, true},
		{"single with queue", &Checkpoint{Mode: ModeSingle, CurrentAccount: "a", PendingAccounts: []string{"b"}}, true},
		{"unknown mode", &Checkpoint{Mode: "batch", CurrentAccount: "a"}, true},
		{"negative index", &Checkpoint{Mode: ModeSingle, CurrentAccount: "a", CurrentIndex: -1}, true},
		{"index without account", &Checkpoint{Mode: ModeMultiple, CurrentIndex: 2}, true},
		{"path in current account", &Checkpoint{Mode: ModeSingle, CurrentAccount: "../x"}, true},
		{"separator in pending account", &Checkpoint{Mode: ModeMultiple, PendingAccounts: []string{"ok", "a/b"}}, true},
		{"empty pending account", &Checkpoint{Mode: ModeMultiple, PendingAccounts: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cp.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}
	tempDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tempDir)

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}

	want := filepath.Join(tempDir, "rdscraper", FileName)
	if path != want {
		t.Errorf("Expected %s, got %s", want, path)
	}

	store, err := NewStore("", logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if store.Path() != want {
		t.Errorf("Expected store path %s, got %s", want, store.Path())
	}
}

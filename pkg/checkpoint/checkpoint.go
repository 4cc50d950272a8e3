package checkpoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is the schema version written by Save
const CurrentVersion = 1

// Mode selects between one account and a queue of accounts
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
)

// ErrNoAccount is returned by Advance when the queue is empty
var ErrNoAccount = errors.New("no pending accounts")

// Checkpoint is the persisted progress record of a run.
//
// CurrentIndex is the number of items of CurrentAccount already downloaded,
// which is also the index of the next item to fetch.
type Checkpoint struct {
	Mode            Mode      `json:"mode"`
	CurrentAccount  string    `json:"current_account"`
	CurrentIndex    int       `json:"current_index"`
	PendingAccounts []string  `json:"pending_accounts"`
	RunID           string    `json:"run_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int       `json:"version"`
}

// NewSingle creates a checkpoint for downloading one account
func NewSingle(account string) *Checkpoint {
	cp := newCheckpoint(ModeSingle)
	cp.CurrentAccount = account
	return cp
}

// NewMultiple creates a checkpoint for a queue of accounts. No account is
// current until Advance is called.
func NewMultiple(accounts []string) *Checkpoint {
	cp := newCheckpoint(ModeMultiple)
	cp.PendingAccounts = append(cp.PendingAccounts, accounts...)
	return cp
}

func newCheckpoint(mode Mode) *Checkpoint {
	now := time.Now()
	return &Checkpoint{
		Mode:            mode,
		PendingAccounts: []string{},
		RunID:           uuid.NewString(),
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         CurrentVersion,
	}
}

// HasCurrent reports whether an account is in progress
func (cp *Checkpoint) HasCurrent() bool {
	return cp.CurrentAccount != ""
}

// Advance pops the head of the pending queue into CurrentAccount and resets
// the index. It returns ErrNoAccount when the queue is empty.
func (cp *Checkpoint) Advance() (string, error) {
	if len(cp.PendingAccounts) == 0 {
		return "", ErrNoAccount
	}
	cp.CurrentAccount = cp.PendingAccounts[0]
	cp.PendingAccounts = cp.PendingAccounts[1:]
	cp.CurrentIndex = 0
	return cp.CurrentAccount, nil
}

// FinishAccount marks the current account complete
func (cp *Checkpoint) FinishAccount() {
	cp.CurrentAccount = ""
	cp.CurrentIndex = 0
}

// Done reports whether there is nothing left to process
func (cp *Checkpoint) Done() bool {
	return !cp.HasCurrent() && len(cp.PendingAccounts) == 0
}

// Validate checks the structural invariants of a checkpoint
func (cp *Checkpoint) Validate() error {
	var errs []error

	switch cp.Mode {
	case ModeSingle:
		if cp.CurrentAccount == "" {
			errs = append(errs, errors.New("single mode requires a current account"))
		}
		if len(cp.PendingAccounts) > 0 {
			errs = append(errs, errors.New("single mode cannot have pending accounts"))
		}
	case ModeMultiple:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", cp.Mode))
	}

	if cp.CurrentAccount != "" && !validAccountName(cp.CurrentAccount) {
		errs = append(errs, fmt.Errorf("invalid current account %q", cp.CurrentAccount))
	}
	for _, account := range cp.PendingAccounts {
		if !validAccountName(account) {
			errs = append(errs, fmt.Errorf("invalid pending account %q", account))
		}
	}

	if cp.CurrentIndex < 0 {
		errs = append(errs, fmt.Errorf("negative current index %d", cp.CurrentIndex))
	}
	if cp.CurrentAccount == "" && cp.CurrentIndex != 0 {
		errs = append(errs, errors.New("current index set without a current account"))
	}
	if cp.Version > CurrentVersion {
		errs = append(errs, fmt.Errorf("unsupported version %d", cp.Version))
	}

	return errors.Join(errs...)
}

// validAccountName accepts non-empty names of letters, digits, '_' and '-'.
// Names become directory names, so anything else is rejected.
func validAccountName(account string) bool {
	if account == "" {
		return false
	}
	for _, char := range account {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_' || char == '-') {
			return false
		}
	}
	return true
}

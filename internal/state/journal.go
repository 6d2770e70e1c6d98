package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	StatusApplied  = "applied"
	StatusFailed   = "failed"
	StatusReverted = "reverted" // written, then restored after verify failed
	StatusDryRun   = "dry-run"
	StatusUndone   = "undone"
	StatusNoop     = "unchanged" // plan produced identical text, nothing written
)

type Entry struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Command    string    `json:"command"`
	File       string    `json:"file"`
	Keys       []string  `json:"keys,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	HashBefore string    `json:"hash_before,omitempty"`
	HashAfter  string    `json:"hash_after,omitempty"`
	Backup     string    `json:"backup,omitempty"`
	Duration   string    `json:"duration,omitempty"`
}

type Journal struct {
	Entries []Entry `json:"entries"`
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

func journalPath(stateDir string) string {
	return filepath.Join(stateDir, "journal.json")
}

// LoadJournal reads the journal from the state directory. Returns an empty
// journal if not found.
func LoadJournal(stateDir string) (*Journal, error) {
	data, err := os.ReadFile(journalPath(stateDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Journal{}, nil
		}
		return nil, err
	}
	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing journal: %w", err)
	}
	return &j, nil
}

// Append adds e, stamping its duration from start.
func (j *Journal) Append(e Entry, start time.Time) {
	if e.Time.IsZero() {
		e.Time = start
	}
	e.Duration = formatDuration(time.Since(start))
	j.Entries = append(j.Entries, e)
}

// Save writes the journal to the state directory.
func (j *Journal) Save(stateDir string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(journalPath(stateDir), data, 0644)
}

// Last returns the newest entry with the given status, or nil.
func (j *Journal) Last(status string) *Entry {
	for i := len(j.Entries) - 1; i >= 0; i-- {
		if j.Entries[i].Status == status {
			return &j.Entries[i]
		}
	}
	return nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}

package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeData(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lessons.ts")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTarget(t *testing.T) {
	path := writeData(t, "abc")
	tg, err := ReadTarget(path)
	if err != nil {
		t.Fatal(err)
	}
	if tg.Text() != "abc" {
		t.Fatalf("Text = %q", tg.Text())
	}
	if tg.Hash != Hash([]byte("abc")) {
		t.Fatalf("Hash = %q", tg.Hash)
	}
}

func TestReadTarget_Missing(t *testing.T) {
	if _, err := ReadTarget(filepath.Join(t.TempDir(), "none.ts")); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteTarget(t *testing.T) {
	path := writeData(t, "old")
	tg, err := ReadTarget(path)
	if err != nil {
		t.Fatal(err)
	}
	hash, err := WriteTarget(tg, "new")
	if err != nil {
		t.Fatal(err)
	}
	if hash != Hash([]byte("new")) {
		t.Fatalf("hash = %q", hash)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Fatalf("file = %q", data)
	}
}

func TestWriteTarget_ChangedOnDisk(t *testing.T) {
	path := writeData(t, "old")
	tg, err := ReadTarget(path)
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(path, []byte("someone else"), 0644)

	if _, err := WriteTarget(tg, "new"); !errors.Is(err, ErrChangedOnDisk) {
		t.Fatalf("err = %v, want ErrChangedOnDisk", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "someone else" {
		t.Fatalf("file was overwritten: %q", data)
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".splice")
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"backups", "logs"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil {
			t.Fatalf("%s not created: %v", sub, err)
		}
		if !info.IsDir() {
			t.Fatalf("%s is not a directory", sub)
		}
	}
}

func TestBackupRestore(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".splice")
	if err := EnsureDir(stateDir); err != nil {
		t.Fatal(err)
	}
	path := writeData(t, "original")
	tg, err := ReadTarget(path)
	if err != nil {
		t.Fatal(err)
	}

	backup, err := Backup(stateDir, "0123456789abcdef", tg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(filepath.Base(backup), "-01234567-lessons.ts") {
		t.Fatalf("backup name = %q", filepath.Base(backup))
	}

	os.WriteFile(path, []byte("edited"), 0644)
	if err := Restore(backup, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Fatalf("restored = %q", data)
	}
}

func TestLatestBackupAndPrune(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".splice")
	if err := EnsureDir(stateDir); err != nil {
		t.Fatal(err)
	}
	if _, err := LatestBackup(stateDir); !errors.Is(err, ErrNoBackup) {
		t.Fatalf("err = %v, want ErrNoBackup", err)
	}

	var made []string
	for _, content := range []string{"one", "two", "three"} {
		tg := &Target{Path: filepath.Join(stateDir, "lessons.ts"), Data: []byte(content)}
		p, err := Backup(stateDir, "run-"+content, tg)
		if err != nil {
			t.Fatal(err)
		}
		made = append(made, p)
		time.Sleep(2 * time.Millisecond)
	}

	latest, err := LatestBackup(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	if latest != made[2] {
		t.Fatalf("latest = %q, want %q", latest, made[2])
	}

	if err := PruneBackups(stateDir, 1); err != nil {
		t.Fatal(err)
	}
	left, err := Backups(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0] != made[2] {
		t.Fatalf("after prune = %v", left)
	}
}

func TestLock(t *testing.T) {
	dir := t.TempDir()
	l, err := AcquireLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := AcquireLock(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquire err = %v, want ErrLocked", err)
	}
	if err := l.Release(); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
	l2, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	l2.Release()
}

func TestJournal_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	j, err := LoadJournal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(j.Entries) != 0 {
		t.Fatalf("expected empty journal, got %d entries", len(j.Entries))
	}

	start := time.Now()
	id := NewRunID()
	j.Append(Entry{ID: id, Command: "replace", File: "lessons.ts", Keys: []string{"cb_10"}, Status: StatusApplied}, start)
	j.Append(Entry{ID: NewRunID(), Command: "apply", Status: StatusFailed, Error: "boom"}, start)
	if err := j.Save(dir); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadJournal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Entries) != 2 {
		t.Fatalf("entries = %d", len(loaded.Entries))
	}
	e := loaded.Entries[0]
	if e.ID != id || e.Keys[0] != "cb_10" || e.Duration == "" || e.Time.IsZero() {
		t.Fatalf("entry = %+v", e)
	}
	if last := loaded.Last(StatusApplied); last == nil || last.ID != id {
		t.Fatalf("Last(applied) = %+v", last)
	}
	if loaded.Last(StatusUndone) != nil {
		t.Fatal("Last(undone) should be nil")
	}
}

func TestLoadJournal_Corrupt(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "journal.json"), []byte("{"), 0644)
	if _, err := LoadJournal(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(250 * time.Millisecond); got != "250ms" {
		t.Fatalf("got %q", got)
	}
	if got := formatDuration(65 * time.Second); got != "1m 05s" {
		t.Fatalf("got %q", got)
	}
}

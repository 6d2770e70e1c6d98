package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var ErrNoBackup = errors.New("no backups found")

// EnsureDir creates the state directory structure.
func EnsureDir(stateDir string) error {
	dirs := []string{
		stateDir,
		filepath.Join(stateDir, "backups"),
		filepath.Join(stateDir, "logs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating state dir %s: %w", d, err)
		}
	}
	return nil
}

// LogPath returns the path for a verify log file.
func LogPath(stateDir, runID string) string {
	return filepath.Join(stateDir, "logs", runID+".log")
}

func backupDir(stateDir string) string {
	return filepath.Join(stateDir, "backups")
}

// Backup copies the original bytes of t into the backups directory and
// returns the backup path. Names sort in creation order.
func Backup(stateDir, runID string, t *Target) (string, error) {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	name := fmt.Sprintf("%s-%s-%s", time.Now().UTC().Format("20060102T150405.000000"), short, filepath.Base(t.Path))
	path := filepath.Join(backupDir(stateDir), name)
	if err := writeFileAtomic(path, t.Data, 0644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return path, nil
}

// Backups lists backup files, oldest first.
func Backups(stateDir string) ([]string, error) {
	entries, err := os.ReadDir(backupDir(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(backupDir(stateDir), e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LatestBackup returns the newest backup path.
func LatestBackup(stateDir string) (string, error) {
	paths, err := Backups(stateDir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", ErrNoBackup
	}
	return paths[len(paths)-1], nil
}

// Restore atomically copies a backup over the target path, keeping the
// target's permissions when it exists.
func Restore(backupPath, targetPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return err
	}
	perm := os.FileMode(0644)
	if info, err := os.Stat(targetPath); err == nil {
		perm = info.Mode().Perm()
	}
	return writeFileAtomic(targetPath, data, perm)
}

// PruneBackups removes the oldest backups so at most keep remain.
func PruneBackups(stateDir string, keep int) error {
	paths, err := Backups(stateDir)
	if err != nil {
		return err
	}
	for len(paths) > keep {
		if err := os.Remove(paths[0]); err != nil {
			return err
		}
		paths = paths[1:]
	}
	return nil
}

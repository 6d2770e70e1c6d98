package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrLocked = errors.New("another splice run holds the lock")

// Lock is an exclusive lock file guarding the data file against concurrent
// runs.
type Lock struct {
	path string
}

func lockPath(stateDir string) string {
	return filepath.Join(stateDir, "lock")
}

// AcquireLock creates the lock file or fails with ErrLocked.
func AcquireLock(stateDir string) (*Lock, error) {
	path := lockPath(stateDir)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			holder, _ := os.ReadFile(path)
			pid := strings.TrimSpace(string(holder))
			return nil, fmt.Errorf("%w (pid %s; remove %s if stale)", ErrLocked, pid, path)
		}
		return nil, err
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

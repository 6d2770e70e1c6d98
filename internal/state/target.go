package state

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

var ErrChangedOnDisk = errors.New("data file changed on disk since it was read")

// Target is the data file as read at the start of a run.
type Target struct {
	Path string
	Data []byte
	Hash string
	Mode os.FileMode
}

// Text returns the file contents as a string.
func (t *Target) Text() string { return string(t.Data) }

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadTarget reads the data file and records its hash and mode.
func ReadTarget(path string) (*Target, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Target{Path: path, Data: data, Hash: Hash(data), Mode: info.Mode().Perm()}, nil
}

// WriteTarget atomically replaces the data file with text. It refuses when
// the file no longer matches what ReadTarget saw. Returns the new hash.
func WriteTarget(t *Target, text string) (string, error) {
	current, err := os.ReadFile(t.Path)
	if err != nil {
		return "", err
	}
	if Hash(current) != t.Hash {
		return "", fmt.Errorf("%s: %w", t.Path, ErrChangedOnDisk)
	}
	data := []byte(text)
	if err := writeFileAtomic(t.Path, data, t.Mode); err != nil {
		return "", fmt.Errorf("writing %s: %w", t.Path, err)
	}
	return Hash(data), nil
}

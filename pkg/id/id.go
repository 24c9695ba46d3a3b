// SPDX-License-Identifier: BSD-3-Clause

package id

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// NewID returns a new random UUID, for one-time, non-persisted use such as a
// per-command correlation id.
func NewID() string {
	return uuid.New().String()
}

// GetOrCreatePersistentID reads the UUID stored at dir/name, creating it
// with a freshly generated UUID if it does not yet exist. The same id is
// returned on every call for a given dir/name pair across process restarts.
func GetOrCreatePersistentID(name, dir string) (string, error) {
	full := filepath.Join(dir, name)

	b, err := os.ReadFile(full)
	switch {
	case err == nil:
		return parseStored(b)
	case !os.IsNotExist(err):
		return "", fmt.Errorf("%w: %w", ErrFileRead, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDirectoryCreation, err)
	}

	newID := uuid.New().String()
	if err := atomicWrite(full, newID); err != nil {
		if os.IsExist(err) {
			// Lost a creation race; read back whatever won.
			b, rerr := os.ReadFile(full)
			if rerr != nil {
				return "", fmt.Errorf("%w: %w", ErrFileRead, rerr)
			}
			return parseStored(b)
		}
		return "", fmt.Errorf("%w: %w", ErrFileCreation, err)
	}
	return newID, nil
}

// UpdatePersistentID generates a new UUID and overwrites dir/name with it,
// regardless of any value already stored there.
func UpdatePersistentID(name, dir string) (string, error) {
	newID := uuid.New().String()
	full := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileUpdate, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(newID); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: %w", ErrFileUpdate, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileUpdate, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileUpdate, err)
	}
	return newID, nil
}

func atomicWrite(path, contents string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(contents)
	return err
}

func parseStored(b []byte) (string, error) {
	parsed, err := uuid.ParseBytes(bytes.TrimSpace(b))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidUUID, err)
	}
	return parsed.String(), nil
}

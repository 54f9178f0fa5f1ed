package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteResult reports what WriteFileAtomic did.
type WriteResult int

const (
	// Created means the file did not exist before.
	Created WriteResult = iota
	// Updated means existing content was replaced.
	Updated
	// Unchanged means the file already held identical content.
	Unchanged
)

func (r WriteResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("write_result(%d)", int(r))
	}
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers never see a partial file. Files whose content already
// matches are left untouched.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) (WriteResult, error) {
	result := Created
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			return Unchanged, nil
		}
		result = Updated
	case !errors.Is(err, fs.ErrNotExist):
		return 0, err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return 0, fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return result, nil
}

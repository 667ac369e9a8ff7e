// Package fileutil holds the small filesystem moves the stages share:
// canonical renames of tool-named outputs and confirmed-write checks that
// gate intermediate deletion.
package fileutil

import (
	"errors"
	"fmt"
	"os"
)

// ReplaceFile moves src onto dst, overwriting any previous artifact at dst.
// Both paths sit in the same coordinate directory, so a rename suffices.
func ReplaceFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove existing %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s: %w", src, err)
	}
	return nil
}

// RemoveIfPresent deletes a path, treating absence as success.
func RemoveIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// ConfirmWritten verifies that a derived artifact exists as a non-empty
// regular file before its precursor is deleted.
func ConfirmWritten(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("confirm %s: path is a directory", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("confirm %s: file is empty", path)
	}
	return nil
}

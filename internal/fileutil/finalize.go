// Package fileutil provides the atomic output handling used for containers and decrypted files.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ExecutableBits are the permission bits carried over from the source file.
const ExecutableBits = 0o111

// TempContext holds state for an atomic file write operation.
// Output goes to a hidden temp file next to OutPath and only replaces it on Commit.
type TempContext struct {
	TmpFile *os.File
	TmpName string
	OutPath string

	committed bool
}

// NewTempContext creates the temp file for outPath. Caller must defer CleanupOnError.
func NewTempContext(outPath string) (*TempContext, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".fernetcrypt-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &TempContext{
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		OutPath: outPath,
	}, nil
}

// Commit applies perm, closes the temp file and renames it onto OutPath.
func (tc *TempContext) Commit(perm os.FileMode) error {
	if err := os.Chmod(tc.TmpName, perm); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := tc.TmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing temporary file: %w", err)
	}

	if err := tc.TmpFile.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tc.TmpName, tc.OutPath); err != nil {
		return fmt.Errorf("renaming output file: %w", err)
	}

	tc.committed = true

	return nil
}

// CleanupOnError closes the temp file and removes it unless it was committed.
// A failed decryption therefore never leaves partial plaintext behind.
func (tc *TempContext) CleanupOnError(errp *error) {
	tc.TmpFile.Close() //nolint:errcheck,gosec // best-effort cleanup

	if *errp != nil || !tc.committed {
		os.Remove(tc.TmpName) //nolint:errcheck,gosec // best-effort cleanup
	}
}

// OutputPerm returns owner read/write, plus the executable bits when the source had any.
func OutputPerm(isExec bool) os.FileMode {
	const ownerReadWrite = 0o600

	perm := os.FileMode(ownerReadWrite)
	if isExec {
		perm |= ExecutableBits
	}

	return perm
}

// FinalizeOutput optionally preserves timestamps and returns the output file size.
func FinalizeOutput(outPath string, preserveTimestamps bool, modTime time.Time) (int64, error) {
	if preserveTimestamps {
		if err := os.Chtimes(outPath, modTime, modTime); err != nil {
			return 0, fmt.Errorf("preserving timestamps: %w", err)
		}
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", outPath, err)
	}

	return outInfo.Size(), nil
}

// Package atomicfile provides whole-file atomic replacement.
//
// Generated configuration and certificate files are read by concurrently
// running services (nginx, the renewal timer), so they are never written in
// place: content goes to a temporary file in the target directory and is
// moved over the destination with rename(2), which is atomic on POSIX
// filesystems.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path atomically with the given permissions.
// A reader concurrently opening path sees either the old content or the new
// content, never a partial write.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	defer func() {
		// Best effort cleanup on any failure path.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// WriteFileIfChanged writes data to path atomically, but only if the current
// content differs. Returns true if the file was written.
//
// Idempotent pipeline steps use this so that a second run with unchanged
// inputs performs no filesystem mutation at all.
func WriteFileIfChanged(path string, data []byte, perm os.FileMode) (bool, error) {
	current, err := os.ReadFile(path) // #nosec G304
	if err == nil && string(current) == string(data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := WriteFile(path, data, perm); err != nil {
		return false, err
	}
	return true, nil
}

// WritePair atomically installs two related files (a certificate and its
// key). Each file is individually atomic; the key is written first so a
// reader that observes the new certificate also observes its key.
func WritePair(certPath string, cert []byte, keyPath string, key []byte) error {
	if err := WriteFile(keyPath, key, 0o600); err != nil {
		return fmt.Errorf("failed to install key: %w", err)
	}
	if err := WriteFile(certPath, cert, 0o644); err != nil {
		return fmt.Errorf("failed to install certificate: %w", err)
	}
	return nil
}

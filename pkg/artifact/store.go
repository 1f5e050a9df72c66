// Package artifact provides the filesystem store for run artifacts. Every
// pipeline stage persists its output here before the next stage starts, so a
// run directory is always a complete record of how far the run got.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrArtifactMissing is returned when a requested artifact does not exist.
var ErrArtifactMissing = errors.New("artifact not found")

// ErrUnsafePath is returned when a run id or artifact name would resolve
// outside the store's base directory.
var ErrUnsafePath = errors.New("path escapes runs directory")

// Store persists run artifacts under a single base directory. All writes are
// atomic (temp file + rename) so readers never observe partial JSON.
type Store struct {
	base string
}

// NewStore creates the base directory if needed and returns a store rooted
// at its absolute path.
func NewStore(baseDir string) (*Store, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve runs directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}
	return &Store{base: abs}, nil
}

// Base returns the absolute runs directory.
func (s *Store) Base() string {
	return s.base
}

// RunDir resolves the directory for a run, rejecting identifiers that would
// resolve outside the base directory.
func (s *Store) RunDir(runID string) (string, error) {
	if err := ValidateRunID(runID); err != nil {
		return "", err
	}
	dir := filepath.Join(s.base, runID)
	if !strings.HasPrefix(dir, s.base+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, runID)
	}
	return dir, nil
}

// resolve validates both path components and returns the absolute artifact
// path. Artifact names must be bare file names.
func (s *Store) resolve(runID, name string) (string, error) {
	dir, err := s.RunDir(runID)
	if err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("%w: artifact %q", ErrUnsafePath, name)
	}
	return filepath.Join(dir, name), nil
}

// EnsureRun creates the run directory.
func (s *Store) EnsureRun(runID string) error {
	dir, err := s.RunDir(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	return nil
}

// RunExists reports whether the run directory is present.
func (s *Store) RunExists(runID string) bool {
	dir, err := s.RunDir(runID)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// WriteJSON marshals v with indentation and writes it atomically.
func (s *Store) WriteJSON(runID, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return s.WriteRaw(runID, name, data)
}

// WriteRaw writes bytes atomically: the content lands in a temp file in the
// run directory and is renamed into place, so a crash mid-write never leaves
// a truncated artifact.
func (s *Store) WriteRaw(runID, name string, data []byte) error {
	path, err := s.resolve(runID, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize %s: %w", name, err)
	}
	return nil
}

// ReadRaw returns the artifact bytes, or ErrArtifactMissing.
func (s *Store) ReadRaw(runID, name string) ([]byte, error) {
	path, err := s.resolve(runID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrArtifactMissing, runID, name)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// ReadJSON unmarshals an artifact into v.
func (s *Store) ReadJSON(runID, name string, v any) error {
	data, err := s.ReadRaw(runID, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the artifact is present.
func (s *Store) Exists(runID, name string) bool {
	path, err := s.resolve(runID, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// List returns the sorted file names present in the run directory.
func (s *Store) List(runID string) ([]string, error) {
	dir, err := s.RunDir(runID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: run %s", ErrArtifactMissing, runID)
		}
		return nil, fmt.Errorf("failed to list run %s: %w", runID, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Package persist stores bot state as a JSON file so restarts keep the
// equity history and the daily first-trade gate.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ai-scalper/internal/interfaces"
)

type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads the saved blob. A missing file is not an error; it just means
// a fresh start.
func (f *File) Load() (interfaces.SavedState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var s interfaces.SavedState
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode state: %w", err)
	}
	return s, nil
}

func (f *File) Save(s interfaces.SavedState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return f.write(b)
}

// Export returns the raw blob for backup.
func (f *File) Export() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []byte("{}"), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	return b, nil
}

// Import replaces the stored state with a previously exported blob. The
// blob must decode as saved state.
func (f *File) Import(blob []byte) error {
	var s interfaces.SavedState
	if err := json.Unmarshal(blob, &s); err != nil {
		return fmt.Errorf("invalid state blob: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(blob)
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// write lands the blob through a rename so a crash mid-save cannot leave a
// truncated file.
func (f *File) write(b []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Package repository provides flat-JSON-file persistence behind per-entity
// interfaces. Every repository serializes access through a per-file lock and
// carries a version counter on mutable records so concurrent read-modify-
// write cycles fail loudly instead of silently losing updates.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrPromoNotFound   = errors.New("promo code not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrCodeTaken       = errors.New("promo code already exists")

	// ErrVersionConflict means the record was modified since it was read.
	ErrVersionConflict = errors.New("record version conflict")
)

// jsonFile is a mutex-guarded slice of records persisted as one JSON file.
// Writes go through a temp file and rename so a crash never leaves a
// half-written store.
type jsonFile[T any] struct {
	path string
	mu   sync.RWMutex
}

func newJSONFile[T any](dir, name string) *jsonFile[T] {
	return &jsonFile[T]{path: filepath.Join(dir, name)}
}

// load reads all records. A missing file is an empty store.
func (f *jsonFile[T]) load() ([]T, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.path, err)
	}
	return items, nil
}

func (f *jsonFile[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}

// view runs fn with a read snapshot of the store.
func (f *jsonFile[T]) view(fn func(items []T) error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	items, err := f.load()
	if err != nil {
		return err
	}
	return fn(items)
}

// update runs fn as one read-modify-write cycle under the write lock and
// persists the returned slice.
func (f *jsonFile[T]) update(fn func(items []T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.load()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return f.save(items)
}

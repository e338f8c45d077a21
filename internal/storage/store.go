package storage

import (
	"context"
	"path/filepath"
	"strings"
)

// Store is a RunStore that can also count and be closed.
type Store interface {
	RunStore
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open opens the history store at path. Paths ending in .jsonl use a JSONL
// file; anything else is a SQLite database.
func Open(path string) (Store, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		s, err := OpenJSONL(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

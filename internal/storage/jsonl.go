package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// JSONLStore keeps run summaries in an append-only JSONL file, one run per
// line. It suits history files that are meant to be read or versioned by hand.
type JSONLStore struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*JSONLStore)(nil)

// OpenJSONL returns a store backed by the JSONL file at path. The file is
// created on the first recorded run.
func OpenJSONL(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &JSONLStore{path: path}, nil
}

// RecordRun appends a run to the end of the file.
func (s *JSONLStore) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening history file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first, optionally limited.
func (s *JSONLStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	runs, err := s.readAll()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Count returns the total number of recorded runs.
func (s *JSONLStore) Count(ctx context.Context) (int, error) {
	runs, err := s.readAll()
	return len(runs), err
}

// Close is a no-op; the file is opened per operation.
func (s *JSONLStore) Close() error {
	return nil
}

func (s *JSONLStore) readAll() ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No runs recorded yet
		}
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var runs []Run
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		runs = append(runs, run)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	return runs, nil
}

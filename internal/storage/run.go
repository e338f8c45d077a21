// Package storage records summaries of merge runs.
//
// Only counts are stored. The contents of uploaded or merged files never
// reach this package.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matsen/refmerge/internal/merge"
)

// Run summarises one merge.
type Run struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source"` // web, api or cli
	Mode       string    `json:"mode"`
	Files      int       `json:"files"`
	RISUnique  int       `json:"ris_unique"`
	ENWUnique  int       `json:"enw_unique"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

// RunStore persists run summaries. Callers receive it explicitly; nothing in
// the merge path depends on it.
type RunStore interface {
	RecordRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// NewRun builds a run summary from a merge result.
func NewRun(source string, mode merge.Mode, files int, res merge.Result) Run {
	return Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Source:     source,
		Mode:       mode.String(),
		Files:      files,
		RISUnique:  res.Stats.RIS.Unique,
		ENWUnique:  res.Stats.ENW.Unique,
		Duplicates: res.Stats.Duplicates(),
		Skipped:    res.Stats.Skipped,
		Failed:     res.Stats.Failed,
	}
}

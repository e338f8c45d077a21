// Package merge deduplicates uploaded RIS and EndNote files and joins the
// surviving contents into one output per format.
package merge

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Mode selects how two files are compared for duplication.
type Mode int

const (
	// ModeLiteral treats files as duplicates only when their text is identical.
	ModeLiteral Mode = iota
	// ModeNormalized compares text after trimming surrounding whitespace and lowercasing.
	ModeNormalized
)

// DefaultSeparator is placed between surviving entries in the merged output.
const DefaultSeparator = "\n"

// ParseMode parses "literal" or "normalized". An empty string selects literal.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal":
		return ModeLiteral, nil
	case "normalized":
		return ModeNormalized, nil
	}
	return ModeLiteral, fmt.Errorf("%w: %q (valid: literal, normalized)", ErrUnknownMode, s)
}

func (m Mode) String() string {
	if m == ModeNormalized {
		return "normalized"
	}
	return "literal"
}

// Options configures a Merger.
type Options struct {
	Mode      Mode
	Separator string
}

// DefaultOptions returns literal comparison joined with DefaultSeparator.
func DefaultOptions() Options {
	return Options{Mode: ModeLiteral, Separator: DefaultSeparator}
}

// UploadedFile is one named payload handed to the merger.
type UploadedFile struct {
	Name    string
	Content []byte
}

// ClassStats counts what happened to the files of one class.
type ClassStats struct {
	Files      int `json:"files"`
	Unique     int `json:"unique"`
	Duplicates int `json:"duplicates"`
}

// Stats summarises a merge.
type Stats struct {
	RIS     ClassStats `json:"ris"`
	ENW     ClassStats `json:"enw"`
	Skipped int        `json:"skipped"`
	Failed  int        `json:"failed"`
}

// Duplicates returns the number of dropped duplicates across both classes.
func (s Stats) Duplicates() int {
	return s.RIS.Duplicates + s.ENW.Duplicates
}

// Result is the outcome of one merge.
type Result struct {
	RIS      string
	ENW      string
	Warnings []string
	// Errors holds a *DecodeError for every classified file that was not UTF-8.
	Errors []error
	Stats  Stats
}

// Output returns the merged text for a class.
func (r Result) Output(c ExtensionClass) string {
	switch c {
	case RIS:
		return r.RIS
	case ENW:
		return r.ENW
	}
	return ""
}

// Merger merges batches of uploaded files. It holds no state between calls
// and is safe for concurrent use.
type Merger struct {
	opts Options
}

// New returns a Merger with the given options.
func New(opts Options) *Merger {
	return &Merger{opts: opts}
}

// Options returns the merger's configuration.
func (m *Merger) Options() Options {
	return m.opts
}

// Merge is shorthand for New(opts).Merge(files).
func Merge(files []UploadedFile, opts Options) Result {
	return New(opts).Merge(files)
}

// Merge classifies every file, drops duplicates within each class and joins
// the survivors in the order they were first seen. Unrecognized and
// undecodable files are reported and skipped; they never abort the batch.
func (m *Merger) Merge(files []UploadedFile) Result {
	var res Result
	ris := newContentSet(m.opts.Mode)
	enw := newContentSet(m.opts.Mode)

	for _, f := range files {
		class := Classify(f.Name)
		if class == Unrecognized {
			res.Warnings = append(res.Warnings, skipWarning(f.Name))
			res.Stats.Skipped++
			continue
		}

		if !utf8.Valid(f.Content) {
			res.Errors = append(res.Errors, &DecodeError{Name: f.Name})
			res.Warnings = append(res.Warnings, decodeWarning(f.Name))
			res.Stats.Failed++
			continue
		}

		set, stats := ris, &res.Stats.RIS
		if class == ENW {
			set, stats = enw, &res.Stats.ENW
		}
		stats.Files++
		if set.add(string(f.Content)) {
			stats.Unique++
		} else {
			stats.Duplicates++
		}
	}

	res.RIS = ris.join(m.opts.Separator)
	res.ENW = enw.join(m.opts.Separator)
	return res
}

// contentSet keeps the first-seen text for every distinct key.
type contentSet struct {
	mode    Mode
	seen    map[string]struct{}
	entries []string
}

func newContentSet(mode Mode) *contentSet {
	return &contentSet{mode: mode, seen: make(map[string]struct{})}
}

// add inserts text unless an entry with the same key exists. It reports
// whether the text was inserted.
func (s *contentSet) add(text string) bool {
	key := Key(text, s.mode)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.entries = append(s.entries, text)
	return true
}

func (s *contentSet) join(sep string) string {
	return strings.Join(s.entries, sep)
}

// Key returns the dedup key of text under mode.
func Key(text string, mode Mode) string {
	if mode == ModeNormalized {
		return strings.ToLower(strings.TrimSpace(text))
	}
	return text
}

package merge

import (
	"errors"
	"sort"
	"strings"
	"testing"
)

const testSep = "\n--\n"

const (
	risArticle = "TY  - JOUR\nAU  - Doe, J\nTI  - Phylogenetics at scale\nER  - \n"
	risBook    = "TY  - BOOK\nAU  - Roe, R\nTI  - Trees\nER  - \n"
	enwArticle = "%0 Journal Article\n%A Doe, J\n%T Phylogenetics at scale\n"
)

func testOptions(mode Mode) Options {
	return Options{Mode: mode, Separator: testSep}
}

// entrySet splits a merged output into its entries, sorted for set comparison.
func entrySet(out string) []string {
	if out == "" {
		return nil
	}
	parts := strings.Split(out, testSep)
	sort.Strings(parts)
	return parts
}

func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMerge_Empty(t *testing.T) {
	for _, files := range [][]UploadedFile{nil, {}} {
		res := Merge(files, DefaultOptions())
		if res.RIS != "" || res.ENW != "" {
			t.Errorf("Merge(empty) outputs = %q, %q, want empty", res.RIS, res.ENW)
		}
		if len(res.Warnings) != 0 || len(res.Errors) != 0 {
			t.Errorf("Merge(empty) warnings = %v errors = %v, want none", res.Warnings, res.Errors)
		}
	}
}

func TestMerge_DeduplicatesIdenticalFiles(t *testing.T) {
	files := []UploadedFile{
		{Name: "a.ris", Content: []byte(risArticle)},
		{Name: "b.ris", Content: []byte(risArticle)},
		{Name: "c.ris", Content: []byte(risArticle)},
		{Name: "a.enw", Content: []byte(enwArticle)},
		{Name: "b.enw", Content: []byte(enwArticle)},
	}

	for _, mode := range []Mode{ModeLiteral, ModeNormalized} {
		t.Run(mode.String(), func(t *testing.T) {
			res := Merge(files, testOptions(mode))
			if res.RIS != risArticle {
				t.Errorf("RIS = %q, want single copy %q", res.RIS, risArticle)
			}
			if res.ENW != enwArticle {
				t.Errorf("ENW = %q, want single copy %q", res.ENW, enwArticle)
			}
			if res.Stats.RIS.Files != 3 || res.Stats.RIS.Unique != 1 || res.Stats.RIS.Duplicates != 2 {
				t.Errorf("RIS stats = %+v", res.Stats.RIS)
			}
			if res.Stats.ENW.Unique != 1 || res.Stats.ENW.Duplicates != 1 {
				t.Errorf("ENW stats = %+v", res.Stats.ENW)
			}
			if got := res.Stats.Duplicates(); got != 3 {
				t.Errorf("Stats.Duplicates() = %d, want 3", got)
			}
		})
	}
}

func TestMerge_NoDuplicateKeysInOutput(t *testing.T) {
	files := []UploadedFile{
		{Name: "1.ris", Content: []byte(risArticle)},
		{Name: "2.ris", Content: []byte(risBook)},
		{Name: "3.ris", Content: []byte("  " + strings.ToUpper(risArticle) + "\n\n")},
		{Name: "4.ris", Content: []byte(risBook)},
		{Name: "5.ris", Content: []byte(strings.ToLower(risBook))},
	}

	for _, mode := range []Mode{ModeLiteral, ModeNormalized} {
		t.Run(mode.String(), func(t *testing.T) {
			res := Merge(files, testOptions(mode))
			counts := make(map[string]int)
			for _, e := range entrySet(res.RIS) {
				counts[Key(e, mode)]++
			}
			for k, n := range counts {
				if n != 1 {
					t.Errorf("key %q appears %d times", k, n)
				}
			}
		})
	}
}

func TestMerge_SkipsUnrecognizedExtension(t *testing.T) {
	files := []UploadedFile{
		{Name: "ref.txt", Content: []byte(risArticle)},
		{Name: "ref.RIS", Content: []byte(risArticle)},
	}

	res := Merge(files, DefaultOptions())

	want := []string{
		"Skipping non-RIS/ENW file: ref.txt",
		"Skipping non-RIS/ENW file: ref.RIS",
	}
	if !equalSets(res.Warnings, want) {
		t.Errorf("Warnings = %q, want %q", res.Warnings, want)
	}
	if res.RIS != "" || res.ENW != "" {
		t.Errorf("unrecognized files contributed output: %q, %q", res.RIS, res.ENW)
	}
	if res.Stats.Skipped != 2 {
		t.Errorf("Stats.Skipped = %d, want 2", res.Stats.Skipped)
	}
}

func TestMerge_CaseSensitivityByMode(t *testing.T) {
	files := []UploadedFile{
		{Name: "upper.ris", Content: []byte("TY  - JOUR")},
		{Name: "lower.ris", Content: []byte("ty  - jour")},
	}

	tests := []struct {
		mode Mode
		want []string
	}{
		{ModeLiteral, []string{"TY  - JOUR", "ty  - jour"}},
		{ModeNormalized, []string{"TY  - JOUR"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			res := Merge(files, testOptions(tt.mode))
			got := entrySet(res.RIS)
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if !equalSets(got, want) {
				t.Errorf("entries = %q, want %q", got, want)
			}
		})
	}
}

func TestMerge_NormalizedIgnoresSurroundingWhitespace(t *testing.T) {
	files := []UploadedFile{
		{Name: "a.enw", Content: []byte(enwArticle)},
		{Name: "b.enw", Content: []byte("\n\t" + enwArticle + "   \n")},
	}

	res := Merge(files, testOptions(ModeNormalized))
	if res.ENW != enwArticle {
		t.Errorf("ENW = %q, want first-seen text %q", res.ENW, enwArticle)
	}

	res = Merge(files, testOptions(ModeLiteral))
	if n := len(entrySet(res.ENW)); n != 2 {
		t.Errorf("literal mode kept %d entries, want 2", n)
	}
}

func TestMerge_OrderIndependentAsSets(t *testing.T) {
	f1 := UploadedFile{Name: "one.ris", Content: []byte(risArticle)}
	f2 := UploadedFile{Name: "two.ris", Content: []byte(risBook)}
	f3 := UploadedFile{Name: "three.enw", Content: []byte(enwArticle)}

	for _, mode := range []Mode{ModeLiteral, ModeNormalized} {
		a := Merge([]UploadedFile{f1, f2, f3}, testOptions(mode))
		b := Merge([]UploadedFile{f3, f2, f1}, testOptions(mode))
		if !equalSets(entrySet(a.RIS), entrySet(b.RIS)) {
			t.Errorf("%s: RIS sets differ: %q vs %q", mode, a.RIS, b.RIS)
		}
		if !equalSets(entrySet(a.ENW), entrySet(b.ENW)) {
			t.Errorf("%s: ENW sets differ: %q vs %q", mode, a.ENW, b.ENW)
		}
	}
}

func TestMerge_FirstSeenOrder(t *testing.T) {
	files := []UploadedFile{
		{Name: "b.ris", Content: []byte("B")},
		{Name: "a.ris", Content: []byte("A")},
		{Name: "b2.ris", Content: []byte("B")},
		{Name: "c.ris", Content: []byte("C")},
	}

	res := Merge(files, Options{Separator: ","})
	if res.RIS != "B,A,C" {
		t.Errorf("RIS = %q, want %q", res.RIS, "B,A,C")
	}
}

func TestMerge_Separator(t *testing.T) {
	files := []UploadedFile{
		{Name: "a.ris", Content: []byte("A")},
		{Name: "b.ris", Content: []byte("B")},
	}

	tests := []struct {
		sep  string
		want string
	}{
		{"", "AB"},
		{"\n", "A\nB"},
	}
	for _, tt := range tests {
		if got := Merge(files, Options{Separator: tt.sep}).RIS; got != tt.want {
			t.Errorf("separator %q: RIS = %q, want %q", tt.sep, got, tt.want)
		}
	}
}

func TestMerge_DecodeErrorContinues(t *testing.T) {
	files := []UploadedFile{
		{Name: "bad.ris", Content: []byte{0xff, 0xfe, 'T', 'Y'}},
		{Name: "good.ris", Content: []byte(risArticle)},
		{Name: "good.enw", Content: []byte(enwArticle)},
	}

	res := Merge(files, DefaultOptions())

	if res.RIS != risArticle || res.ENW != enwArticle {
		t.Errorf("valid files were not merged: RIS=%q ENW=%q", res.RIS, res.ENW)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want one decode error", res.Errors)
	}

	var decErr *DecodeError
	if !errors.As(res.Errors[0], &decErr) {
		t.Fatalf("error %T is not a *DecodeError", res.Errors[0])
	}
	if decErr.Name != "bad.ris" {
		t.Errorf("DecodeError.Name = %q, want bad.ris", decErr.Name)
	}
	if !errors.Is(res.Errors[0], ErrInvalidUTF8) {
		t.Error("decode error does not wrap ErrInvalidUTF8")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "bad.ris") {
		t.Errorf("Warnings = %q, want one naming bad.ris", res.Warnings)
	} else if res.Warnings[0] != decErr.Warning() {
		t.Errorf("Warning() = %q, want recorded warning %q", decErr.Warning(), res.Warnings[0])
	}
	if res.Stats.Failed != 1 {
		t.Errorf("Stats.Failed = %d, want 1", res.Stats.Failed)
	}
}

func TestMerge_OnlyUnusableFiles(t *testing.T) {
	files := []UploadedFile{
		{Name: "notes.md", Content: []byte("# notes")},
		{Name: "broken.enw", Content: []byte{0xc3, 0x28}},
	}

	res := Merge(files, DefaultOptions())
	if res.RIS != "" || res.ENW != "" {
		t.Errorf("outputs = %q, %q, want empty", res.RIS, res.ENW)
	}
	if len(res.Warnings) != 2 || len(res.Errors) != 1 {
		t.Errorf("warnings = %d errors = %d, want 2 and 1", len(res.Warnings), len(res.Errors))
	}
}

func TestMerge_RoundTrip(t *testing.T) {
	originals := []UploadedFile{
		{Name: "a.ris", Content: []byte(risArticle)},
		{Name: "b.ris", Content: []byte(risBook)},
		{Name: "a.enw", Content: []byte(enwArticle)},
	}

	for _, mode := range []Mode{ModeLiteral, ModeNormalized} {
		t.Run(mode.String(), func(t *testing.T) {
			first := Merge(originals, testOptions(mode))

			again := Merge(append(append([]UploadedFile{}, originals...), originals...), testOptions(mode))
			if again.Stats.RIS.Unique != first.Stats.RIS.Unique || again.Stats.ENW.Unique != first.Stats.ENW.Unique {
				t.Errorf("re-uploading originals grew output: %+v vs %+v", again.Stats, first.Stats)
			}

			merged := []UploadedFile{
				{Name: "merged_output.ris", Content: []byte(first.RIS)},
				{Name: "merged_output.ris", Content: []byte(first.RIS)},
				{Name: "merged_output.enw", Content: []byte(first.ENW)},
			}
			second := Merge(merged, testOptions(mode))
			if second.RIS != first.RIS || second.ENW != first.ENW {
				t.Errorf("merging merged output changed it: %q -> %q", first.RIS, second.RIS)
			}

			// A single-entry output is identical to its constituent.
			single := Merge([]UploadedFile{
				{Name: "a.enw", Content: []byte(enwArticle)},
				{Name: "merged_output.enw", Content: []byte(first.ENW)},
			}, testOptions(mode))
			if single.Stats.ENW.Unique != 1 {
				t.Errorf("ENW unique = %d, want 1", single.Stats.ENW.Unique)
			}
		})
	}
}

func TestMerger_ReusableAcrossCalls(t *testing.T) {
	m := New(testOptions(ModeLiteral))

	first := m.Merge([]UploadedFile{{Name: "a.ris", Content: []byte("A")}})
	second := m.Merge([]UploadedFile{{Name: "b.ris", Content: []byte("B")}})

	if first.RIS != "A" || second.RIS != "B" {
		t.Errorf("state leaked between calls: %q, %q", first.RIS, second.RIS)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeLiteral, false},
		{"literal", ModeLiteral, false},
		{"Normalized", ModeNormalized, false},
		{" normalized ", ModeNormalized, false},
		{"fuzzy", ModeLiteral, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownMode) {
				t.Errorf("error %v does not wrap ErrUnknownMode", err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

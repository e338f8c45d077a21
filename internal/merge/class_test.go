package merge

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want ExtensionClass
	}{
		{"refs.ris", RIS},
		{"library.enw", ENW},
		{"dir/nested.ris", RIS},
		{"refs.RIS", Unrecognized},
		{"refs.Enw", Unrecognized},
		{"ref.txt", Unrecognized},
		{"ris", Unrecognized},
		{"refs.ris.bak", Unrecognized},
		{".ris", RIS},
		{"", Unrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestExtensionClass_Download(t *testing.T) {
	tests := []struct {
		class     ExtensionClass
		output    string
		mediaType string
	}{
		{RIS, "merged_output.ris", "application/x-research-info-systems"},
		{ENW, "merged_output.enw", "application/x-endnote-refer"},
	}

	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			if got := tt.class.OutputName(); got != tt.output {
				t.Errorf("OutputName() = %q, want %q", got, tt.output)
			}
			if got := tt.class.MediaType(); got != tt.mediaType {
				t.Errorf("MediaType() = %q, want %q", got, tt.mediaType)
			}
		})
	}
}

func TestParseClass(t *testing.T) {
	if c, ok := ParseClass("ris"); !ok || c != RIS {
		t.Errorf("ParseClass(ris) = %v, %v", c, ok)
	}
	if c, ok := ParseClass("enw"); !ok || c != ENW {
		t.Errorf("ParseClass(enw) = %v, %v", c, ok)
	}
	if _, ok := ParseClass("bib"); ok {
		t.Error("ParseClass(bib) should fail")
	}
}

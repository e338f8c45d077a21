package merge

import "strings"

// ExtensionClass is the reference format of an uploaded file, decided by its name.
type ExtensionClass int

const (
	Unrecognized ExtensionClass = iota
	RIS
	ENW
)

// Media types offered for the merged downloads.
const (
	RISMediaType = "application/x-research-info-systems"
	ENWMediaType = "application/x-endnote-refer"
)

// Classify returns the class of a file from the suffix of its name.
// Matching is case-sensitive: "refs.RIS" is Unrecognized.
func Classify(name string) ExtensionClass {
	switch {
	case strings.HasSuffix(name, ".ris"):
		return RIS
	case strings.HasSuffix(name, ".enw"):
		return ENW
	default:
		return Unrecognized
	}
}

// ParseClass parses a format name such as "ris" or "enw".
func ParseClass(s string) (ExtensionClass, bool) {
	switch s {
	case "ris":
		return RIS, true
	case "enw":
		return ENW, true
	}
	return Unrecognized, false
}

func (c ExtensionClass) String() string {
	switch c {
	case RIS:
		return "ris"
	case ENW:
		return "enw"
	default:
		return "unrecognized"
	}
}

// Extension returns the file suffix for the class, including the dot.
func (c ExtensionClass) Extension() string {
	if c == Unrecognized {
		return ""
	}
	return "." + c.String()
}

// MediaType returns the download media type for the class.
func (c ExtensionClass) MediaType() string {
	switch c {
	case RIS:
		return RISMediaType
	case ENW:
		return ENWMediaType
	default:
		return "application/octet-stream"
	}
}

// OutputName returns the file name the merged output is offered under.
func (c ExtensionClass) OutputName() string {
	return "merged_output" + c.Extension()
}

package merge

import (
	"errors"
	"fmt"
)

// ErrInvalidUTF8 is wrapped by every DecodeError.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// ErrUnknownMode is returned by ParseMode for names other than literal and normalized.
var ErrUnknownMode = errors.New("unknown merge mode")

// DecodeError reports a classified file whose payload is not UTF-8 text.
type DecodeError struct {
	Name string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Name, ErrInvalidUTF8)
}

func (e *DecodeError) Unwrap() error {
	return ErrInvalidUTF8
}

// Warning returns the warning line Merge records alongside this error.
func (e *DecodeError) Warning() string {
	return decodeWarning(e.Name)
}

func skipWarning(name string) string {
	return fmt.Sprintf("Skipping non-RIS/ENW file: %s", name)
}

func decodeWarning(name string) string {
	return fmt.Sprintf("Could not decode %s as UTF-8 text", name)
}

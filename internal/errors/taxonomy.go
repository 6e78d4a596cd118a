package errors

import (
	"fmt"
	"strings"
)

// StageNotFoundError is returned when the requested stage is not declared in
// general.stages.
type StageNotFoundError struct {
	Stage     string
	Available []string
}

func (e *StageNotFoundError) Error() string {
	return fmt.Sprintf("stage '%s' not found in pocket.toml stages", e.Stage)
}

// MissingSectionError is returned when a mandatory document section is absent.
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("missing [%s] section", e.Section)
}

// ParseError is returned when a document section fails structural validation
// or cannot be decoded into its typed form.
type ParseError struct {
	Section  string
	Problems []string
	Err      error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("failed to parse pocket.toml")
	if e.Section != "" {
		fmt.Fprintf(&b, " [%s]", e.Section)
	}
	switch {
	case len(e.Problems) > 0:
		b.WriteString(":\n  - ")
		b.WriteString(strings.Join(e.Problems, "\n  - "))
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedSecretTypeError is returned when a managed secret holds a
// structured value that no expansion rule knows how to flatten.
type UnsupportedSecretTypeError struct {
	Name string
	Type string // Empty when the raw value was neither a string nor an object
}

func (e *UnsupportedSecretTypeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("unsupported secret type: unexpected value type for key=%s", e.Name)
	}
	return fmt.Sprintf("unsupported secret type: key=%s, type=%s", e.Name, e.Type)
}

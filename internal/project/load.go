package project

import (
	"fmt"
	"os"

	"github.com/worgue/magic-pocket/internal/document"
	"github.com/worgue/magic-pocket/internal/errors"
)

// LoadFile reads the document at path and resolves it for stage.
func LoadFile(path, stage string) (*Config, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return Resolve(doc, stage)
}

// LoadGeneralFile reads the document at path and decodes only [general].
func LoadGeneralFile(path string) (*Config, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return ResolveGeneral(doc)
}

func readDocument(path string) (document.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Value{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := document.Decode(document.FormatFor(path), data)
	if err != nil {
		return document.Value{}, &errors.ParseError{Err: err}
	}
	return doc, nil
}

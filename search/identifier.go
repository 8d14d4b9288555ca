package search

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidIdentifier is returned for filenames that yield no usable id.
var ErrInvalidIdentifier = errors.New("search: invalid identifier")

// ErrDuplicateIdentifier is returned for a batch item whose identifier an
// earlier item already claimed.
var ErrDuplicateIdentifier = errors.New("search: duplicate identifier")

// ErrRemoveUnsupported is returned when the store cannot delete records.
var ErrRemoveUnsupported = errors.New("search: store does not support removal")

// Identifier derives the image identifier from a filename: its base name
// with any directory components removed.
func Identifier(filename string) (string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(filename, "\\", "/"))
	if name == "" {
		return "", fmt.Errorf("%w: empty filename", ErrInvalidIdentifier)
	}
	id := path.Base(name)
	switch id {
	case ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, filename)
	}
	return id, nil
}

package storage

import (
	"errors"
	"io"
)

// ErrInvalidName is returned for filenames that fail sanitization.
var ErrInvalidName = errors.New("invalid file name")

// Store is a per-offer blob store. Filenames are relative to the
// offer's own namespace; implementations must reject names that would
// escape it.
type Store interface {
	// Put writes the blob under its sanitized basename, replacing any
	// existing file with that name.
	Put(offerID uint, name string, r io.Reader) error
	// List returns the filenames currently present for the offer.
	// A namespace that was never written to lists as empty.
	List(offerID uint) ([]string, error)
	// Delete removes one file. Deleting a missing file is not an error.
	Delete(offerID uint, name string) error
	// DeleteAll removes the offer's whole namespace.
	DeleteAll(offerID uint) error
}

// SanitizeName reduces a client-supplied filename to a safe basename.
// Path separators and traversal sequences are rejected rather than
// rewritten, so a hostile name never silently maps onto another file.
func SanitizeName(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return "", ErrInvalidName
		}
	}
	if name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return name, nil
}

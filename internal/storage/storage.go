// Package storage keeps uploaded image bytes, on the local filesystem or in an S3-compatible bucket.
package storage

import (
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the named object does not exist.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidName is returned for names that are empty or could escape the store root.
	ErrInvalidName = errors.New("storage: invalid object name")
)

// Object is an opened stored image. Callers must Close it.
type Object struct {
	io.ReadSeekCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// ValidateName rejects names that are empty, contain path separators, or are dot segments.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}

	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}

	return nil
}

// SanitizeFilename reduces a client-supplied filename to a safe base name.
// Returns "image" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}

		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "image"
	}

	return name
}

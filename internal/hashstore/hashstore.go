// Package hashstore records a content digest per payload so unchanged payloads can be skipped.
package hashstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/temirov/llm-prompter/internal/fsops"
)

const (
	hashFileExtension         = ".hash"
	readStoredHashErrorFormat = "read stored hash %s: %w"
	writeHashErrorFormat      = "write hash %s: %w"
)

// Digest returns the hex-encoded SHA-256 of the full payload text.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Store compares payload digests against digest files kept in a directory.
// A Store with an empty directory is disabled: every payload counts as changed.
type Store struct {
	ops       fsops.Ops
	directory string
}

func New(ops fsops.Ops, directory string) Store {
	return Store{ops: ops, directory: strings.TrimSpace(directory)}
}

func (s Store) Enabled() bool { return s.directory != "" }

// Path returns the digest file location for payloadName.
func (s Store) Path(payloadName string) string {
	return filepath.Join(s.directory, payloadName+hashFileExtension)
}

// Changed reports whether freshHash differs from the stored digest.
// A missing digest file counts as changed; any other read failure is returned.
func (s Store) Changed(payloadName string, freshHash string) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	stored, readErr := s.ops.ReadText(s.Path(payloadName))
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf(readStoredHashErrorFormat, s.Path(payloadName), readErr)
	}
	return strings.TrimSpace(stored) != freshHash, nil
}

// Update persists freshHash for payloadName. It is a no-op when the store is disabled.
func (s Store) Update(payloadName string, freshHash string) error {
	if !s.Enabled() {
		return nil
	}
	if writeErr := s.ops.WriteText(s.Path(payloadName), freshHash); writeErr != nil {
		return fmt.Errorf(writeHashErrorFormat, s.Path(payloadName), writeErr)
	}
	return nil
}

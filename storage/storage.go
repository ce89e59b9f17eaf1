// Package storage persists save snapshots under player-chosen names. Two
// backends exist: flat files for solo play and Redis for shared hosts. Both
// store the snapshot bytes opaquely; the save format belongs to engine/save.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no save exists under the requested name.
var ErrNotFound = errors.New("save not found")

// Store is the save persistence contract.
type Store interface {
	// Put stores a snapshot under the given name, replacing any previous
	// snapshot with that name.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the snapshot stored under the name, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// List returns all stored save names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Delete removes the named snapshot. Deleting a missing name is
	// ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// validName rejects names that could escape the backend's namespace.
func validName(name string) error {
	if name == "" {
		return fmt.Errorf("save name is empty")
	}
	if strings.ContainsAny(name, "/\\:") || name == "." || name == ".." {
		return fmt.Errorf("save name %q contains reserved characters", name)
	}
	return nil
}

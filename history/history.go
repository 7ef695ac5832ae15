// Package history defines the applied-change history collaborator: the
// store the coordinator consults to decide whether a change set already ran,
// and writes to after a successful apply or revert. Implementations must be
// safe for concurrent reads; writes happen only from the single coordinator
// holding the run.
package history

import (
	"context"
	"time"

	"github.com/getpup/sqlshift"
)

// Entry is one applied-change-set record: identity, the checksum computed at
// apply time (hex form), when it was applied, and its position in the run.
type Entry struct {
	ID        string
	Author    string
	Path      string
	Checksum  string
	AppliedAt time.Time
	ExecOrder int
}

// Identity returns the entry's identity tuple.
func (e Entry) Identity() sqlshift.Identity {
	return sqlshift.Identity{ID: e.ID, Author: e.Author, Path: e.Path}
}

// Store provides persistence for applied-change-set records. The engine
// never assumes a particular storage technology behind it.
type Store interface {
	// Find returns the record for an identity, and whether one exists.
	Find(ctx context.Context, id sqlshift.Identity) (Entry, bool, error)

	// Record persists an entry after a successful apply. Replaces any
	// existing record for the same identity (re-runs of alwaysRun or
	// runOnChange sets update the stored checksum).
	Record(ctx context.Context, e Entry) error

	// Remove deletes the record for an identity after a successful
	// revert. Removing an absent identity is not an error.
	Remove(ctx context.Context, id sqlshift.Identity) error

	// Entries returns all records ordered by execution order.
	Entries(ctx context.Context) ([]Entry, error)
}

package sqlshift

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
)

// ChangeSet is an ordered, identity-bearing group of changes applied and
// reverted as a unit. The contained order is execution order; rollback runs
// in reverse. History records are keyed by the set's Identity and store the
// checksum computed at first-apply time.
type ChangeSet struct {
	// ID is the author-chosen identifier, unique within the changelog.
	ID string

	// Author is who wrote the change set.
	Author string

	// Path is the source location of the changelog the set was loaded
	// from.
	Path string

	// AlwaysRun requests re-application on every run, applied or not.
	AlwaysRun bool

	// RunOnChange requests re-application when the checksum drifts from
	// the recorded one, instead of only reporting the drift.
	RunOnChange bool

	changes []Change

	checksumOnce sync.Once
	checksum     ContentHash
}

// Identity returns the set's identity tuple.
func (cs *ChangeSet) Identity() Identity {
	return Identity{ID: cs.ID, Author: cs.Author, Path: cs.Path}
}

// Add appends changes in execution order and binds each one that tracks its
// owning set back to cs.
func (cs *ChangeSet) Add(changes ...Change) {
	for _, c := range changes {
		if b, ok := c.(changeSetBinder); ok {
			b.BindChangeSet(cs)
		}
		cs.changes = append(cs.changes, c)
	}
}

// Changes returns the contained changes in execution order. The returned
// slice is shared; callers must not mutate it.
func (cs *ChangeSet) Changes() []Change {
	return cs.changes
}

// Checksum is the digest over the concatenated per-change digests in
// declared order, computed on first call and memoized. It is independent of
// any target database and stable across process restarts.
func (cs *ChangeSet) Checksum() ContentHash {
	cs.checksumOnce.Do(func() {
		h := sha256.New()
		for _, c := range cs.changes {
			d := c.Digest()
			h.Write(d[:])
		}
		copy(cs.checksum[:], h.Sum(nil))
	})
	return cs.checksum
}

// CheckDrift compares a previously recorded checksum (hex form, as stored by
// the history collaborator) against the current one. A mismatch returns a
// *ChangeSetModifiedError; this is advisory, not an execution failure.
func (cs *ChangeSet) CheckDrift(recorded string) *ChangeSetModifiedError {
	computed := cs.Checksum().String()
	if recorded == computed {
		return nil
	}
	return &ChangeSetModifiedError{Set: cs.Identity(), Recorded: recorded, Computed: computed}
}

// CanRollback reports whether every contained change supports rollback.
func (cs *ChangeSet) CanRollback() bool {
	for _, c := range cs.changes {
		if !CanRollback(c) {
			return false
		}
	}
	return true
}

// Apply executes each contained change's forward statements in order against
// db. It stops at the first failure: the returned *ApplyError names the
// failing change and how many preceding changes already ran. Whether those
// are committed depends on the Execer the caller supplied.
func (cs *ChangeSet) Apply(ctx context.Context, db Execer, target DatabaseTarget) error {
	for i, c := range cs.changes {
		if err := ExecuteForward(ctx, c, db, target); err != nil {
			if execErr, ok := err.(*ExecError); ok {
				execErr.Set = cs.Identity()
			}
			return &ApplyError{
				Set:     cs.Identity(),
				Kind:    c.Kind(),
				Index:   i,
				Applied: i,
				Err:     err,
			}
		}
	}
	return nil
}

// Revert executes rollback in reverse change order, so later-applied changes
// are undone first. Rollback is all-or-nothing at set granularity: if any
// contained change cannot roll back, Revert refuses before executing
// anything, with an error unwrapping to ErrRollbackImpossible.
func (cs *ChangeSet) Revert(ctx context.Context, db Execer, target DatabaseTarget) error {
	for _, c := range cs.changes {
		if !CanRollback(c) {
			return &RevertError{
				Set:  cs.Identity(),
				Kind: c.Kind(),
				Err:  fmt.Errorf("%s: %w", c.Kind(), ErrRollbackImpossible),
			}
		}
	}
	for i := len(cs.changes) - 1; i >= 0; i-- {
		c := cs.changes[i]
		if err := ExecuteRollback(ctx, c, db, target); err != nil {
			if execErr, ok := err.(*ExecError); ok {
				execErr.Set = cs.Identity()
			}
			return &RevertError{Set: cs.Identity(), Kind: c.Kind(), Err: err}
		}
	}
	return nil
}

// WriteForward appends the set's forward statements to w in execution order,
// using the same generation logic as Apply.
func (cs *ChangeSet) WriteForward(w io.Writer, target DatabaseTarget) error {
	for i, c := range cs.changes {
		if err := WriteForward(w, c, target); err != nil {
			return &ApplyError{Set: cs.Identity(), Kind: c.Kind(), Index: i, Applied: i, Err: err}
		}
	}
	return nil
}

// WriteRollback appends the set's rollback statements to w in reverse change
// order, refusing up front if any contained change cannot roll back.
func (cs *ChangeSet) WriteRollback(w io.Writer, target DatabaseTarget) error {
	for _, c := range cs.changes {
		if !CanRollback(c) {
			return &RevertError{
				Set:  cs.Identity(),
				Kind: c.Kind(),
				Err:  fmt.Errorf("%s: %w", c.Kind(), ErrRollbackImpossible),
			}
		}
	}
	for i := len(cs.changes) - 1; i >= 0; i-- {
		c := cs.changes[i]
		if err := WriteRollback(w, c, target); err != nil {
			return &RevertError{Set: cs.Identity(), Kind: c.Kind(), Err: err}
		}
	}
	return nil
}

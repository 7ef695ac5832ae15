package sqlshift

import (
	"errors"
	"fmt"
)

var (
	// ErrRollbackImpossible indicates a change declares no inverses and
	// implements no rollback override. This is a property of the change
	// itself, not of any target database.
	ErrRollbackImpossible = errors.New("change cannot be rolled back")

	// ErrChangeSetModified indicates a change set's current checksum
	// differs from the checksum recorded when it was first applied.
	// Advisory: the set was edited after application.
	ErrChangeSetModified = errors.New("change set modified after application")
)

// SetupError indicates a change's configuration is structurally invalid.
// Fatal and non-retryable: the change must not be used for generation.
type SetupError struct {
	Kind   ChangeKind
	Reason string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Kind, e.Reason)
}

// UnsupportedError indicates the target database product cannot express the
// change. Recoverable at the caller's discretion.
type UnsupportedError struct {
	Kind   ChangeKind
	Target string
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not supported on %s", e.Kind, e.Target)
	}
	return fmt.Sprintf("%s is not supported on %s: %s", e.Kind, e.Target, e.Reason)
}

// ExecError indicates a generated statement failed at the database. Never
// retried by the engine: schema operations are rarely safely retryable
// without inspection.
type ExecError struct {
	Set       Identity
	Kind      ChangeKind
	Statement string
	Err       error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s failed executing %q: %v", e.Set, e.Kind, e.Statement, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ApplyError reports a failed forward application of a change set. Index is
// the position of the failing change and Applied the number of preceding
// changes whose statements already ran; callers decide what that means under
// their commit model.
type ApplyError struct {
	Set     Identity
	Kind    ChangeKind
	Index   int
	Applied int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%s: change %d (%s) failed after %d applied: %v", e.Set, e.Index, e.Kind, e.Applied, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// RevertError reports a failed rollback of a change set. When the rollback
// was refused before any statement ran (a contained change cannot roll
// back), Err unwraps to ErrRollbackImpossible.
type RevertError struct {
	Set  Identity
	Kind ChangeKind
	Err  error
}

func (e *RevertError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s: rollback failed: %v", e.Set, e.Err)
	}
	return fmt.Sprintf("%s: rollback of %s failed: %v", e.Set, e.Kind, e.Err)
}

func (e *RevertError) Unwrap() error { return e.Err }

// ChangeSetModifiedError is the advisory drift signal: the recorded and
// currently computed checksums for one identity disagree.
type ChangeSetModifiedError struct {
	Set      Identity
	Recorded string
	Computed string
}

func (e *ChangeSetModifiedError) Error() string {
	return fmt.Sprintf("%s: checksum was %s when applied, is now %s", e.Set, e.Recorded, e.Computed)
}

func (e *ChangeSetModifiedError) Unwrap() error { return ErrChangeSetModified }

package coordinator

import (
	"time"

	"github.com/getpup/sqlshift"
	"github.com/google/uuid"
)

// Status is the outcome of one change set within a run.
type Status string

const (
	// StatusApplied indicates the set's forward statements ran (or were
	// serialized, in script mode).
	StatusApplied Status = "applied"

	// StatusReverted indicates the set's rollback statements ran (or
	// were serialized).
	StatusReverted Status = "reverted"

	// StatusSkipped indicates history marked the set applied (forward
	// runs) or not applied (rollback runs), so it was not touched.
	StatusSkipped Status = "skipped"

	// StatusFailed indicates the set aborted the run.
	StatusFailed Status = "failed"

	// StatusNotAttempted indicates an earlier failure stopped the run
	// before this set was reached.
	StatusNotAttempted Status = "not-attempted"
)

// Outcome is the per-change-set result within a run.
type Outcome struct {
	Set    sqlshift.Identity
	Status Status

	// Err is set for StatusFailed outcomes.
	Err error
}

// Report describes a whole run: one outcome per change set, in the order
// they were considered, plus any advisory drift detections.
type Report struct {
	// RunID uniquely identifies the run (UUID).
	RunID string

	StartedAt  time.Time
	FinishedAt time.Time

	Outcomes []Outcome

	// Drift lists change sets whose checksum no longer matches the one
	// recorded at apply time. Advisory: drift never fails a run.
	Drift []*sqlshift.ChangeSetModifiedError
}

func newReport() *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
}

func (r *Report) add(set sqlshift.Identity, status Status, err error) {
	r.Outcomes = append(r.Outcomes, Outcome{Set: set, Status: status, Err: err})
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
}

// Count returns how many outcomes have the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the failing outcome, or nil for a clean run.
func (r *Report) Failed() *Outcome {
	for i := range r.Outcomes {
		if r.Outcomes[i].Status == StatusFailed {
			return &r.Outcomes[i]
		}
	}
	return nil
}

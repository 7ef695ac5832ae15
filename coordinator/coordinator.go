// Package coordinator drives migration runs: it decides which change sets
// still need to run against the history store, applies or reverts them in
// order against a live database or serializes them to a script sink, and
// reports per-set outcomes.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/history"
	"github.com/getpup/sqlshift/metrics"
	"github.com/sirupsen/logrus"
)

// Config holds configuration for the Coordinator.
type Config struct {
	// History is the applied-change history store (required).
	History history.Store

	// Target renders statements for the database product (required).
	Target sqlshift.DatabaseTarget

	// DB is the live database handle. Required unless Sink is set.
	DB sqlshift.Execer

	// Sink selects script mode: statements are serialized here, in
	// generation order, and nothing executes against a database. History
	// is still consulted to decide which sets the script includes, but
	// never written.
	Sink io.Writer

	// Logger is for observability (optional, defaults to the standard
	// logger).
	Logger *logrus.Logger
}

// Coordinator orchestrates sequential, single-writer migration runs. The
// live handle is held exclusively for the duration of each run: Run and
// RollbackTo serialize on an internal mutex.
type Coordinator struct {
	config Config
	mu     sync.Mutex
}

// New creates a Coordinator, validating that the required collaborators are
// present.
func New(cfg Config) (*Coordinator, error) {
	if cfg.History == nil {
		return nil, errors.New("coordinator: History is required")
	}
	if cfg.Target == nil {
		return nil, errors.New("coordinator: Target is required")
	}
	if cfg.DB == nil && cfg.Sink == nil {
		return nil, errors.New("coordinator: either DB or Sink is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Coordinator{config: cfg}, nil
}

func (c *Coordinator) scriptMode() bool { return c.config.Sink != nil }

func (c *Coordinator) mode() string {
	if c.scriptMode() {
		return "script"
	}
	return "live"
}

func (c *Coordinator) setLogger(cs *sqlshift.ChangeSet) *logrus.Entry {
	return c.config.Logger.WithFields(logrus.Fields{
		"changeset": cs.Identity().String(),
		"target":    c.config.Target.Name(),
		"mode":      c.mode(),
	})
}

// Run applies each change set not yet recorded as applied, in order. On
// success each applied set is recorded in history with its checksum. On the
// first failure the run stops: the report distinguishes applied, skipped,
// failed and not-attempted sets, and the failure is returned alongside it.
//
// Sets recorded as applied are skipped, never re-executed, except that
// AlwaysRun sets re-apply on every run and RunOnChange sets re-apply when
// their checksum drifted. Drift on any other applied set is reported in the
// Report's Drift list and logged, but does not fail the run.
func (c *Coordinator) Run(ctx context.Context, sets []*sqlshift.ChangeSet) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := newReport()
	defer report.finish()
	defer c.observeDuration(time.Now())

	nextOrder, err := c.nextExecOrder(ctx)
	if err != nil {
		return report, err
	}

	for i, cs := range sets {
		log := c.setLogger(cs)

		run, recordErr := c.shouldRun(ctx, cs, report, log)
		if recordErr != nil {
			c.abort(report, sets[i:], cs, recordErr)
			return report, recordErr
		}
		if !run {
			report.add(cs.Identity(), StatusSkipped, nil)
			metrics.ChangeSetsSkippedTotal.WithLabelValues(c.config.Target.Name()).Inc()
			log.Debug("change set already applied, skipping")
			continue
		}

		if err := c.applySet(ctx, cs, log); err != nil {
			c.abort(report, sets[i:], cs, err)
			metrics.RunFailuresTotal.WithLabelValues(c.config.Target.Name(), c.mode()).Inc()
			return report, err
		}

		if !c.scriptMode() {
			entry := history.Entry{
				ID:        cs.ID,
				Author:    cs.Author,
				Path:      cs.Path,
				Checksum:  cs.Checksum().String(),
				AppliedAt: time.Now().UTC(),
				ExecOrder: nextOrder,
			}
			nextOrder++
			if err := c.config.History.Record(ctx, entry); err != nil {
				recordErr := fmt.Errorf("%s: applied but failed to record history: %w", cs.Identity(), err)
				c.abort(report, sets[i:], cs, recordErr)
				return report, recordErr
			}
		}

		report.add(cs.Identity(), StatusApplied, nil)
		metrics.ChangeSetsAppliedTotal.WithLabelValues(c.config.Target.Name()).Inc()
		log.Info("change set applied")
	}

	return report, nil
}

// RollbackTo reverts the given change sets in reverse order, later-applied
// sets first. Sets with no history record are skipped. Before any statement
// runs, every set to be reverted is checked for rollback support; a set that
// cannot roll back fails the run up front with ErrRollbackImpossible, so no
// partial undo executes. Each successfully reverted set is removed from
// history.
func (c *Coordinator) RollbackTo(ctx context.Context, sets []*sqlshift.ChangeSet) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := newReport()
	defer report.finish()
	defer c.observeDuration(time.Now())

	// Pre-flight: refuse the whole run before touching the database.
	for i := len(sets) - 1; i >= 0; i-- {
		cs := sets[i]
		applied, err := c.isApplied(ctx, cs)
		if err != nil {
			return report, err
		}
		if applied && !cs.CanRollback() {
			err := &sqlshift.RevertError{
				Set: cs.Identity(),
				Err: sqlshift.ErrRollbackImpossible,
			}
			report.add(cs.Identity(), StatusFailed, err)
			metrics.RunFailuresTotal.WithLabelValues(c.config.Target.Name(), c.mode()).Inc()
			return report, err
		}
	}

	for i := len(sets) - 1; i >= 0; i-- {
		cs := sets[i]
		log := c.setLogger(cs)

		applied, err := c.isApplied(ctx, cs)
		if err != nil {
			c.abortReverse(report, sets[:i+1], cs, err)
			return report, err
		}
		if !applied {
			report.add(cs.Identity(), StatusSkipped, nil)
			log.Debug("change set not applied, nothing to revert")
			continue
		}

		if err := c.revertSet(ctx, cs, log); err != nil {
			c.abortReverse(report, sets[:i+1], cs, err)
			metrics.RunFailuresTotal.WithLabelValues(c.config.Target.Name(), c.mode()).Inc()
			return report, err
		}

		if !c.scriptMode() {
			if err := c.config.History.Remove(ctx, cs.Identity()); err != nil {
				removeErr := fmt.Errorf("%s: reverted but failed to update history: %w", cs.Identity(), err)
				c.abortReverse(report, sets[:i+1], cs, removeErr)
				return report, removeErr
			}
		}

		report.add(cs.Identity(), StatusReverted, nil)
		metrics.ChangeSetsRevertedTotal.WithLabelValues(c.config.Target.Name()).Inc()
		log.Info("change set reverted")
	}

	return report, nil
}

// shouldRun decides whether a set runs this time, recording drift as a side
// effect.
func (c *Coordinator) shouldRun(ctx context.Context, cs *sqlshift.ChangeSet, report *Report, log *logrus.Entry) (bool, error) {
	entry, found, err := c.config.History.Find(ctx, cs.Identity())
	if err != nil {
		return false, fmt.Errorf("%s: failed to read history: %w", cs.Identity(), err)
	}
	if !found {
		return true, nil
	}

	run := cs.AlwaysRun
	if drift := cs.CheckDrift(entry.Checksum); drift != nil {
		report.Drift = append(report.Drift, drift)
		metrics.DriftDetectedTotal.WithLabelValues(c.config.Target.Name()).Inc()
		if cs.RunOnChange {
			log.Info("checksum changed, re-applying runOnChange change set")
			run = true
		} else {
			log.WithField("recorded", drift.Recorded).WithField("computed", drift.Computed).
				Warn("change set modified after application")
		}
	}
	return run, nil
}

func (c *Coordinator) isApplied(ctx context.Context, cs *sqlshift.ChangeSet) (bool, error) {
	_, found, err := c.config.History.Find(ctx, cs.Identity())
	if err != nil {
		return false, fmt.Errorf("%s: failed to read history: %w", cs.Identity(), err)
	}
	return found, nil
}

func (c *Coordinator) applySet(ctx context.Context, cs *sqlshift.ChangeSet, log *logrus.Entry) error {
	if c.scriptMode() {
		if _, err := fmt.Fprintf(c.config.Sink, "-- changeset %s\n", cs.Identity()); err != nil {
			return err
		}
		return cs.WriteForward(c.config.Sink, c.config.Target)
	}

	if err := cs.Apply(ctx, c.config.DB, c.config.Target); err != nil {
		return err
	}
	for _, ch := range cs.Changes() {
		metrics.ChangesAppliedTotal.WithLabelValues(c.config.Target.Name(), string(ch.Kind())).Inc()
		log.Info(ch.Confirmation())
	}
	return nil
}

func (c *Coordinator) revertSet(ctx context.Context, cs *sqlshift.ChangeSet, log *logrus.Entry) error {
	if c.scriptMode() {
		if _, err := fmt.Fprintf(c.config.Sink, "-- rollback changeset %s\n", cs.Identity()); err != nil {
			return err
		}
		return cs.WriteRollback(c.config.Sink, c.config.Target)
	}
	return cs.Revert(ctx, c.config.DB, c.config.Target)
}

// abort marks the failing set and everything after it in forward order.
func (c *Coordinator) abort(report *Report, remaining []*sqlshift.ChangeSet, failed *sqlshift.ChangeSet, err error) {
	report.add(failed.Identity(), StatusFailed, err)
	for _, cs := range remaining {
		if cs == failed {
			continue
		}
		report.add(cs.Identity(), StatusNotAttempted, nil)
	}
	c.setLogger(failed).WithError(err).Error("run aborted")
}

// abortReverse marks the failing set and everything before it, which in
// rollback order means everything not yet reached.
func (c *Coordinator) abortReverse(report *Report, remaining []*sqlshift.ChangeSet, failed *sqlshift.ChangeSet, err error) {
	report.add(failed.Identity(), StatusFailed, err)
	for i := len(remaining) - 1; i >= 0; i-- {
		if remaining[i] == failed {
			continue
		}
		report.add(remaining[i].Identity(), StatusNotAttempted, nil)
	}
	c.setLogger(failed).WithError(err).Error("rollback aborted")
}

func (c *Coordinator) nextExecOrder(ctx context.Context) (int, error) {
	entries, err := c.config.History.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read history: %w", err)
	}
	next := 0
	for _, e := range entries {
		if e.ExecOrder >= next {
			next = e.ExecOrder + 1
		}
	}
	return next, nil
}

func (c *Coordinator) observeDuration(start time.Time) {
	metrics.RunDurationSeconds.WithLabelValues(c.config.Target.Name(), c.mode()).
		Observe(time.Since(start).Seconds())
}

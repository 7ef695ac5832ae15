// Package sqlshift is the execution core of a database schema-migration
// engine. It defines the Change contract (forward generation, inverse-based
// or bespoke rollback, content digests) and the ChangeSet unit of execution
// and history tracking. Concrete change kinds live in the change package,
// dialect renderers in dialect, applied-history stores in history, and the
// run/rollback/dry-run driver in coordinator.
package sqlshift

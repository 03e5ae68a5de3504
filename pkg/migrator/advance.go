package migrator

import (
	"context"

	"github.com/cassmigrate/cassmigrate/pkg/cql"
	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

// AdvanceOptions controls a single advancement run.
type AdvanceOptions struct {
	// Target selects how far to advance; see ResolveTarget for the
	// accepted forms. Empty means the latest version.
	Target string

	// Skip records versions without executing their content, used for
	// baselining an existing database.
	Skip bool

	// Force cleans up a trailing FAILED version before advancing, allowing
	// a retry past a failure without a full reset.
	Force bool
}

// advance applies every pending migration at or below the target version,
// one at a time, in ascending order. Each migration goes through a
// two-phase commit against the version table:
//
//  1. open: conditionally insert an IN_PROGRESS record under a fresh ID
//  2. execute: run the script (unless skipping)
//  3. finalize: conditionally move the record to its terminal state
//
// Version N+1 is never opened before version N's finalize has committed.
// Any conditional write that is not applied means a concurrent process
// interfered; the run stops with a ConcurrentMigrationError rather than
// retrying, since retrying could execute a non-idempotent script twice.
func (m *Migrator) advance(ctx context.Context, res *VerifyResult, opts AdvanceOptions) error {
	if opts.Force {
		if err := m.cleanupFailed(ctx, res); err != nil {
			return err
		}
	}

	target, err := ResolveTarget(m.migrations, opts.Target)
	if err != nil {
		return err
	}

	if len(res.Pending) > 0 {
		// Bind the session to the keyspace so scripts don't need to
		// qualify table names.
		if err := m.store.UseKeyspace(ctx); err != nil {
			return errors.Wrap(err, "failed to bind keyspace")
		}
	}

	for _, p := range res.Pending {
		if p.Version > target {
			break
		}

		if err := m.applyMigration(ctx, p, opts.Skip); err != nil {
			return err
		}
	}

	return errors.Wrap(m.store.RefreshSchema(ctx), "failed to refresh schema metadata")
}

// cleanupFailed deletes the most recent history entry when it is a FAILED
// attempt at the next pending version. A FAILED row anywhere else means the
// history needs manual attention; guessing which row to remove risks
// destroying evidence of a deeper inconsistency.
func (m *Migrator) cleanupFailed(ctx context.Context, res *VerifyResult) error {
	last := res.History.Last()
	if last == nil || last.State != StateFailed {
		return nil
	}

	if last.Version != res.LastVersion+1 {
		return errors.Errorf(
			"refusing to clean up failed version %d: it does not follow the last applied version %d",
			last.Version, res.LastVersion)
	}

	m.logger.Warn("Cleaning up previous failed migration", "version", last.Version, "name", last.Name)

	applied, err := m.store.DeleteVersion(ctx, last.ID, StateFailed)
	if err != nil {
		return errors.Wrap(err, "failed to delete failed version")
	}
	if !applied {
		return &ConcurrentMigrationError{Version: last.Version, Name: last.Name}
	}

	return nil
}

// applyMigration runs the open/execute/finalize sequence for one pending
// migration.
func (m *Migrator) applyMigration(ctx context.Context, p Pending, skip bool) error {
	m.logger.Info("Advancing to version", "version", p.Version, "name", p.Migration.Name)

	rec := &VersionRecord{
		ID:       gocql.TimeUUID(),
		Version:  p.Version,
		Name:     p.Migration.Name,
		Content:  p.Migration.Content,
		Checksum: p.Migration.Checksum,
		State:    StateInProgress,
	}

	applied, err := m.store.InsertVersion(ctx, rec)
	if err != nil {
		return errors.Wrapf(err, "failed to write in-progress version %d", p.Version)
	}
	if !applied {
		return &ConcurrentMigrationError{Version: p.Version, Name: p.Migration.Name}
	}

	var execErr error
	if skip {
		m.logger.Info("Migration is marked for skipping, not actually running script")
	} else {
		execErr = m.execute(ctx, p)
	}

	state := StateSucceeded
	switch {
	case execErr != nil:
		state = StateFailed
	case skip:
		state = StateSkipped
	}

	// Finalize unconditionally so a failed execution is recorded as FAILED
	// instead of leaving the row stuck IN_PROGRESS.
	m.logger.Info("Finalizing migration version", "version", p.Version, "state", string(state))

	applied, err = m.store.FinalizeVersion(ctx, rec.ID, state)
	if err != nil {
		return errors.Wrapf(err, "failed to finalize version %d", p.Version)
	}
	if !applied {
		// Another process finalized this row; the race is unresolvable
		// from here, so the local outcome is discarded.
		return &ConcurrentMigrationError{Version: p.Version, Name: p.Migration.Name}
	}

	if execErr != nil {
		m.logger.Error("Failed to execute migration", "version", p.Version, "error", execErr)
		return &FailedMigrationError{Version: p.Version, Name: p.Migration.Name}
	}

	return nil
}

// execute runs a migration's content against the store. Errors and panics
// are contained here and reported as a failure outcome; they never
// propagate past the finalize step.
func (m *Migrator) execute(ctx context.Context, p Pending) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("migration panicked: %v", r)
		}
	}()

	switch p.Migration.Kind {
	case migration.KindHook:
		m.logger.Info("Applying hook migration", "name", p.Migration.Name)

		if p.Migration.Hook == nil {
			return errors.Errorf("hook migration %s has no resolved hook", p.Migration.Name)
		}
		return p.Migration.Hook(ctx, m.store)

	default:
		statements, err := cql.Split(p.Migration.Content)
		if err != nil {
			return errors.Wrapf(err, "failed to split migration %s", p.Migration.Name)
		}

		if len(statements) > 0 {
			m.logger.Info("Applying CQL migration", "name", p.Migration.Name, "statements", len(statements))
		}

		for _, stmt := range statements {
			if err := m.store.Execute(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

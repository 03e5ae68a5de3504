package migrator

import (
	"errors"
	"fmt"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
)

type (
	// FailedMigrationError reports that a migration's execution failed, or
	// that verification found a previously failed version and IgnoreFailed
	// was not requested. It always aborts the remaining pending queue.
	FailedMigrationError struct {
		Version int
		Name    string
	}

	// ConcurrentMigrationError reports that a conditional write (open,
	// finalize, or cleanup delete) was not applied because another process
	// interfered, or that verification found an in-progress version and
	// IgnoreConcurrent was not requested. The losing process must fail
	// loudly rather than retry, to avoid running a script twice.
	ConcurrentMigrationError struct {
		Version int
		Name    string
	}

	// InconsistentStateError reports that a stored version's name, content,
	// or checksum differs from the migration defined on disk at the same
	// position.
	InconsistentStateError struct {
		Migration *migration.Migration
		Record    *VersionRecord
	}

	// UnknownMigrationError reports a stored version with no corresponding
	// local migration: the remote history is longer than the known
	// migration sequence.
	UnknownMigrationError struct {
		Version int
		Name    string
	}
)

func (e *FailedMigrationError) Error() string {
	return fmt.Sprintf("migration failed, cannot continue (version %d): %s", e.Version, e.Name)
}

func (e *ConcurrentMigrationError) Error() string {
	return fmt.Sprintf("migration already in progress (version %d): %s", e.Version, e.Name)
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf(
		"found inconsistency between migration %s and stored version %d (%s)",
		e.Migration.Name, e.Record.Version, e.Record.Name,
	)
}

func (e *UnknownMigrationError) Error() string {
	return fmt.Sprintf("found version in database without corresponding migration (version %d): %s", e.Version, e.Name)
}

// migrationError marks the error kinds owned by this package so callers can
// distinguish them from infrastructure failures with IsMigrationError.
func (e *FailedMigrationError) migrationError()     {}
func (e *ConcurrentMigrationError) migrationError() {}
func (e *InconsistentStateError) migrationError()   {}
func (e *UnknownMigrationError) migrationError()    {}

type migrationError interface {
	error
	migrationError()
}

// IsMigrationError reports whether err is one of the migration error kinds
// (failed, concurrent, inconsistent, unknown), as opposed to a connection
// or other infrastructure failure.
func IsMigrationError(err error) bool {
	var me migrationError
	return errors.As(err, &me)
}

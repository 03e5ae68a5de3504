package migrator

import (
	"bytes"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
)

type (
	// VerifyOptions controls how a stored failed or in-progress version is
	// treated during verification. Without the matching flag, such a
	// version fails verification immediately.
	VerifyOptions struct {
		// IgnoreFailed treats a stored FAILED version as the start of the
		// pending suffix instead of an error. Set when retrying with
		// --force.
		IgnoreFailed bool

		// IgnoreConcurrent treats a stored IN_PROGRESS version as the
		// start of the pending suffix instead of an error. Set for
		// read-only status reporting.
		IgnoreConcurrent bool
	}

	// Pending pairs a migration with the version number it will be stored
	// under when applied.
	Pending struct {
		Version   int
		Migration *migration.Migration
	}

	// VerifyResult is the outcome of a successful verification.
	VerifyResult struct {
		// LastVersion is the highest version accepted as consistently
		// applied: 0 when nothing has been applied. Failed and in-progress
		// versions never count, even when ignored.
		LastVersion int

		// History is the version history the result was computed from.
		History History

		// Pending holds the migrations still to apply, in ascending
		// version order starting at LastVersion+1.
		Pending []Pending
	}
)

// Verify compares the local migration sequence against the stored version
// history and computes the pending suffix.
//
// History rows and migrations are paired up position by position, both
// 1-indexed; version numbers must be dense and match migration positions
// exactly. Scanning stops, and everything from that point on is pending,
// at the first position with no history row, or at a FAILED row under
// IgnoreFailed, or at an IN_PROGRESS row under IgnoreConcurrent.
//
// Verification fails with:
//   - UnknownMigrationError when the history is longer than the migration
//     sequence
//   - FailedMigrationError / ConcurrentMigrationError when a FAILED or
//     IN_PROGRESS row is found without the matching ignore flag
//   - InconsistentStateError when a row's name, content, or checksum
//     differs from the migration at the same position
//
// Verify is a pure function: it never touches the store.
func Verify(migrations []*migration.Migration, history History, opts VerifyOptions) (*VerifyResult, error) {
	lastVersion := 0

scan:
	for i, rec := range history {
		if i >= len(migrations) {
			return nil, &UnknownMigrationError{Version: rec.Version, Name: rec.Name}
		}
		m := migrations[i]

		switch rec.State {
		case StateFailed:
			if opts.IgnoreFailed {
				break scan
			}
			return nil, &FailedMigrationError{Version: rec.Version, Name: rec.Name}

		case StateInProgress:
			if opts.IgnoreConcurrent {
				break scan
			}
			return nil, &ConcurrentMigrationError{Version: rec.Version, Name: rec.Name}
		}

		// A version number that doesn't match the migration's position, or
		// a snapshot that differs from the migration on disk, means the
		// recorded history has drifted from the local sequence.
		if rec.Version != i+1 ||
			rec.Name != m.Name ||
			rec.Content != m.Content ||
			!bytes.Equal(rec.Checksum, m.Checksum) {
			return nil, &InconsistentStateError{Migration: m, Record: rec}
		}

		lastVersion = rec.Version
	}

	pending := make([]Pending, 0, len(migrations)-lastVersion)
	for i := lastVersion; i < len(migrations); i++ {
		pending = append(pending, Pending{Version: i + 1, Migration: migrations[i]})
	}

	return &VerifyResult{
		LastVersion: lastVersion,
		History:     history,
		Pending:     pending,
	}, nil
}

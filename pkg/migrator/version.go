// Package migrator implements the migration verification and advancement
// engine.
//
// The engine compares an ordered local migration sequence against the
// version history stored in the cluster, classifies the history state,
// computes the pending suffix, and advances the history one migration at a
// time. All coordination between concurrent invocations relies on the
// store's per-row compare-and-set primitive: each version slot is opened
// with a conditional insert and finalized with a conditional update, so at
// most one concurrent writer can ever win a slot. There is no client-side
// locking.
package migrator

import (
	"context"
	"sort"
	"time"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/gocql/gocql"
)

type (
	// State is the lifecycle state of a version record. Records move from
	// StateInProgress to exactly one of the terminal states; Succeeded and
	// Skipped are immutable, while Failed rows can be cleaned up under an
	// explicit force request.
	State string

	// VersionRecord is one row of the version table: a single attempt at
	// applying a migration. Retried migrations get a fresh record with a
	// fresh ID; the name, content, and checksum snapshot the migration at
	// the time of the attempt and are immutable once written.
	VersionRecord struct {
		ID        gocql.UUID
		Version   int
		Name      string
		Content   string
		Checksum  []byte
		State     State
		AppliedAt time.Time
	}

	// History is the version table's rows ordered by version ascending. It
	// is re-read at the start of every verify/advance cycle and never
	// cached across operations.
	History []*VersionRecord

	// Store is the database-access collaborator. Conditional operations
	// return applied=false when the row's current state didn't match the
	// condition, meaning a concurrent writer got there first.
	//
	// Connection pooling, authentication, and TLS are entirely the
	// implementation's concern; see pkg/cassandra for the gocql-backed one.
	Store interface {
		migration.Executor

		// InsertVersion inserts rec if no row exists with its ID.
		InsertVersion(ctx context.Context, rec *VersionRecord) (applied bool, err error)

		// FinalizeVersion moves the identified row from StateInProgress to
		// the given terminal state.
		FinalizeVersion(ctx context.Context, id gocql.UUID, to State) (applied bool, err error)

		// DeleteVersion deletes the identified row if it is still in the
		// given state.
		DeleteVersion(ctx context.Context, id gocql.UUID, current State) (applied bool, err error)

		// ListVersions scans the whole version table. Order is unspecified;
		// the engine sorts by version itself.
		ListVersions(ctx context.Context) ([]*VersionRecord, error)

		KeyspaceExists(ctx context.Context) (bool, error)
		EnsureKeyspace(ctx context.Context) error
		TableExists(ctx context.Context) (bool, error)
		EnsureTable(ctx context.Context) error
		DropKeyspace(ctx context.Context) error

		// UseKeyspace binds the session to the configured keyspace so
		// migration scripts don't need to qualify table names.
		UseKeyspace(ctx context.Context) error

		// RefreshSchema refreshes cached schema metadata, waiting for
		// cluster-wide schema agreement.
		RefreshSchema(ctx context.Context) error
	}
)

const (
	StateInProgress State = "IN_PROGRESS"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
	StateSkipped    State = "SKIPPED"
)

// LoadHistory reads the full version table and returns it sorted by version
// ascending. Cassandra orders rows by partition, so the sort happens here.
func LoadHistory(ctx context.Context, store Store) (History, error) {
	records, err := store.ListVersions(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Version < records[j].Version })
	return History(records), nil
}

// Last returns the final history entry, or nil for an empty history.
func (h History) Last() *VersionRecord {
	if len(h) == 0 {
		return nil
	}

	return h[len(h)-1]
}

package migrator

import (
	"context"
	"log/slog"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/pkg/errors"
)

type (
	// Migrator ties the verification and advancement engine to a store and
	// a migration sequence. It is the explicit context threaded through
	// every operation: no global state, no implicit logger.
	//
	// Example usage:
	//
	//	m := migrator.New(migrator.Config{
	//		Store:      client,
	//		Migrations: dir,
	//	})
	//
	//	if err := m.Migrate(ctx, migrator.MigrateOptions{}); err != nil {
	//		log.Fatal(err)
	//	}
	Migrator struct {
		store      Store
		migrations *migration.MigrationDir
		logger     *slog.Logger
	}

	// Config contains the collaborators needed to build a Migrator.
	Config struct {
		// Store is the database-access collaborator.
		Store Store

		// Migrations is the ordered local migration sequence.
		Migrations *migration.MigrationDir

		// Logger receives progress reporting. Defaults to slog.Default().
		Logger *slog.Logger
	}

	// MigrateOptions controls Migrate and Reset.
	MigrateOptions struct {
		// Target selects the version to migrate to; empty means latest.
		Target string

		// Force retries past a trailing FAILED version by cleaning it up
		// before advancing.
		Force bool
	}

	// BaselineOptions controls Baseline.
	BaselineOptions struct {
		// Target selects the version to baseline to; empty means latest.
		Target string
	}

	// Status describes the current migration state of the cluster for
	// rendering by the caller.
	Status struct {
		// KeyspaceExists and TableExists report whether the migration
		// tracking infrastructure is present. When either is false the
		// remaining fields are zero.
		KeyspaceExists bool
		TableExists    bool

		// LastVersion is the highest consistently applied version, 0 when
		// none.
		LastVersion int

		// LatestVersion is the highest version defined on disk.
		LatestVersion int

		// Applied holds the stored version history, ascending.
		Applied History

		// Pending holds the migrations not yet applied, ascending.
		Pending []Pending
	}
)

// New creates a Migrator from the provided configuration.
func New(cfg Config) *Migrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Migrator{
		store:      cfg.Store,
		migrations: cfg.Migrations,
		logger:     logger,
	}
}

// Migrate advances the database to the target version, applying any needed
// migrations. The keyspace and version table are created when missing.
//
// With Force, a trailing FAILED version is cleaned up and retried;
// otherwise a previously failed migration aborts the run with a
// FailedMigrationError.
func (m *Migrator) Migrate(ctx context.Context, opts MigrateOptions) error {
	if err := m.store.EnsureKeyspace(ctx); err != nil {
		return errors.Wrap(err, "failed to ensure keyspace")
	}
	if err := m.store.EnsureTable(ctx); err != nil {
		return errors.Wrap(err, "failed to ensure migrations table")
	}

	res, err := m.verify(ctx, VerifyOptions{IgnoreFailed: opts.Force})
	if err != nil {
		return err
	}

	return m.advance(ctx, res, AdvanceOptions{Target: opts.Target, Force: opts.Force})
}

// Baseline advances the version history up to the target version without
// executing any migration content, marking each version as SKIPPED. Used to
// adopt this tool on a database whose schema already exists.
//
// The keyspace must already exist; only the version table is created.
func (m *Migrator) Baseline(ctx context.Context, opts BaselineOptions) error {
	if err := m.store.EnsureTable(ctx); err != nil {
		return errors.Wrap(err, "failed to ensure migrations table")
	}

	res, err := m.verify(ctx, VerifyOptions{})
	if err != nil {
		return err
	}

	return m.advance(ctx, res, AdvanceOptions{Target: opts.Target, Skip: true})
}

// Reset drops the keyspace and migrates from scratch.
func (m *Migrator) Reset(ctx context.Context, opts MigrateOptions) error {
	if err := m.Clear(ctx); err != nil {
		return err
	}

	return m.Migrate(ctx, MigrateOptions{Target: opts.Target})
}

// Clear drops the keyspace, discarding all data and the version history.
func (m *Migrator) Clear(ctx context.Context) error {
	m.logger.Info("Dropping keyspace")

	if err := m.store.DropKeyspace(ctx); err != nil {
		return errors.Wrap(err, "failed to drop keyspace")
	}

	return errors.Wrap(m.store.RefreshSchema(ctx), "failed to refresh schema metadata")
}

// CurrentStatus reports the migration state of the cluster without mutating
// anything. Failed and in-progress versions are tolerated so the report
// can always be produced.
func (m *Migrator) CurrentStatus(ctx context.Context) (*Status, error) {
	status := &Status{LatestVersion: m.migrations.Latest()}

	exists, err := m.store.KeyspaceExists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check keyspace")
	}
	if !exists {
		return status, nil
	}
	status.KeyspaceExists = true

	exists, err = m.store.TableExists(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check migrations table")
	}
	if !exists {
		return status, nil
	}
	status.TableExists = true

	res, err := m.verify(ctx, VerifyOptions{IgnoreFailed: true, IgnoreConcurrent: true})
	if err != nil {
		return nil, err
	}

	status.LastVersion = res.LastVersion
	status.Applied = res.History
	status.Pending = res.Pending
	return status, nil
}

// verify re-reads the history and runs verification against it. The
// history is always read fresh; a copy from an earlier operation is never
// trusted for a CAS decision.
func (m *Migrator) verify(ctx context.Context, opts VerifyOptions) (*VerifyResult, error) {
	history, err := LoadHistory(ctx, m.store)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load version history")
	}

	res, err := Verify(m.migrations.Migrations, history, opts)
	if err != nil {
		return nil, err
	}

	if len(res.Pending) == 0 {
		m.logger.Info("Database is already up-to-date")
	} else {
		m.logger.Info("Pending migrations found",
			"current_version", res.LastVersion,
			"latest_version", m.migrations.Latest(),
		)
	}

	return res, nil
}

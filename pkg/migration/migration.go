// Package migration provides loading, ordering, and scaffolding of schema
// migration files.
//
// Migrations are plain files in a directory, applied in lexical filename
// order. Each file is either a CQL script (.cql) executed statement by
// statement, or a hook reference (.hook) naming a registered Go function
// that receives a live database handle. The package computes a SHA-256
// checksum for every migration at load time; the checksum is stored
// alongside the applied version and compared byte for byte on later runs
// to detect drift.
package migration

import (
	"context"
	"crypto/sha256"
)

type (
	// Kind categorizes how a migration's content is executed.
	Kind string

	// Executor is the live database handle passed to hook migrations. It
	// executes a single statement against the cluster.
	Executor interface {
		Execute(ctx context.Context, stmt string, values ...any) error
	}

	// Hook is a procedural migration. Hooks are registered by name at
	// startup (see RegisterHook) and referenced from .hook files, replacing
	// any form of dynamic code loading. Any error returned is treated as a
	// migration execution failure.
	Hook func(ctx context.Context, db Executor) error

	// Migration is one schema migration as defined on disk. The value is
	// immutable once loaded; its identity is its 1-indexed position in the
	// loaded sequence.
	Migration struct {
		// Name is the migration filename (e.g. "001_create_users.cql"),
		// unique within the sequence.
		Name string

		// Content is the raw file content.
		Content string

		// Checksum is the SHA-256 digest of Content, computed at load time.
		// Stored checksums are compared byte for byte against this value,
		// never recomputed from stored content.
		Checksum []byte

		// Kind selects the execution strategy for this migration.
		Kind Kind

		// Path is the file path the migration was loaded from, relative to
		// the migration directory.
		Path string

		// Hook is the resolved hook function for KindHook migrations, nil
		// otherwise.
		Hook Hook
	}

	// MigrationDir is an ordered collection of migrations loaded from a
	// directory. Order is lexical by filename and stable across runs.
	MigrationDir struct {
		// Migrations holds the descriptors in application order. The
		// migration at index i has version i+1.
		Migrations []*Migration
	}
)

const (
	// KindCQL marks a migration whose content is a CQL script, split into
	// statements and executed sequentially.
	KindCQL Kind = "cql"

	// KindHook marks a migration whose content names a registered hook
	// function invoked with a live database handle.
	KindHook Kind = "hook"
)

// New creates a migration descriptor from raw content, computing its
// checksum. Used by the loader and by tests that build sequences by hand.
func New(name, content string, kind Kind) *Migration {
	sum := sha256.Sum256([]byte(content))

	return &Migration{
		Name:     name,
		Content:  content,
		Checksum: sum[:],
		Kind:     kind,
	}
}

// Position returns the 1-indexed position of the named migration, or 0 if
// no migration has that name.
func (d *MigrationDir) Position(name string) int {
	for i, m := range d.Migrations {
		if m.Name == name {
			return i + 1
		}
	}

	return 0
}

// Latest returns the highest migration version in the directory, which is
// simply the number of migrations.
func (d *MigrationDir) Latest() int {
	return len(d.Migrations)
}

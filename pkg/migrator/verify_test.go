package migrator_test

import (
	"testing"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func mig(name, content string) *migration.Migration {
	return migration.New(name, content, migration.KindCQL)
}

// applied builds a history row matching m at the given version.
func applied(version int, m *migration.Migration, state migrator.State) *migrator.VersionRecord {
	return &migrator.VersionRecord{
		Version:  version,
		Name:     m.Name,
		Content:  m.Content,
		Checksum: m.Checksum,
		State:    state,
	}
}

func TestVerify(t *testing.T) {
	m1 := mig("001_users.cql", "CREATE TABLE users (id uuid PRIMARY KEY);")
	m2 := mig("002_events.cql", "CREATE TABLE events (id uuid PRIMARY KEY);")
	m3 := mig("003_index.cql", "CREATE INDEX ON events (id);")
	migrations := []*migration.Migration{m1, m2, m3}

	t.Run("empty history leaves everything pending", func(t *testing.T) {
		res, err := migrator.Verify(migrations, nil, migrator.VerifyOptions{})
		require.NoError(t, err)
		require.Equal(t, 0, res.LastVersion)
		require.Len(t, res.Pending, 3)
		require.Equal(t, 1, res.Pending[0].Version)
		require.Same(t, m1, res.Pending[0].Migration)
	})

	t.Run("consistent prefix yields pending suffix", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateSucceeded),
			applied(2, m2, migrator.StateSkipped),
		}

		res, err := migrator.Verify(migrations, history, migrator.VerifyOptions{})
		require.NoError(t, err)
		require.Equal(t, 2, res.LastVersion)
		require.Len(t, res.Pending, 1)
		require.Equal(t, 3, res.Pending[0].Version)
		require.Same(t, m3, res.Pending[0].Migration)
	})

	t.Run("fully applied has no pending", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateSucceeded),
			applied(2, m2, migrator.StateSucceeded),
			applied(3, m3, migrator.StateSucceeded),
		}

		res, err := migrator.Verify(migrations, history, migrator.VerifyOptions{})
		require.NoError(t, err)
		require.Equal(t, 3, res.LastVersion)
		require.Empty(t, res.Pending)
	})

	t.Run("history longer than migrations", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateSucceeded),
			applied(2, m2, migrator.StateSucceeded),
			applied(3, m3, migrator.StateSucceeded),
			{Version: 4, Name: "004_gone.cql", State: migrator.StateSucceeded},
		}

		_, err := migrator.Verify(migrations, history, migrator.VerifyOptions{})

		var unknown *migrator.UnknownMigrationError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, 4, unknown.Version)
	})

	t.Run("checksum drift", func(t *testing.T) {
		rec := applied(1, m1, migrator.StateSucceeded)
		rec.Checksum = mig(m1.Name, "something else entirely").Checksum

		_, err := migrator.Verify(migrations, migrator.History{rec}, migrator.VerifyOptions{})

		var inconsistent *migrator.InconsistentStateError
		require.ErrorAs(t, err, &inconsistent)
		require.Same(t, m1, inconsistent.Migration)
	})

	t.Run("name drift", func(t *testing.T) {
		rec := applied(1, m1, migrator.StateSucceeded)
		rec.Name = "001_renamed.cql"

		var inconsistent *migrator.InconsistentStateError
		_, err := migrator.Verify(migrations, migrator.History{rec}, migrator.VerifyOptions{})
		require.ErrorAs(t, err, &inconsistent)
	})

	t.Run("version gap", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateSucceeded),
			applied(3, m2, migrator.StateSucceeded),
		}

		var inconsistent *migrator.InconsistentStateError
		_, err := migrator.Verify(migrations, history, migrator.VerifyOptions{})
		require.ErrorAs(t, err, &inconsistent)
	})

	t.Run("failed version aborts without IgnoreFailed", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateSucceeded),
			applied(2, m2, migrator.StateFailed),
		}

		_, err := migrator.Verify(migrations, history, migrator.VerifyOptions{})

		var failed *migrator.FailedMigrationError
		require.ErrorAs(t, err, &failed)
		require.Equal(t, 2, failed.Version)
	})

	t.Run("failed version becomes pending with IgnoreFailed", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateSucceeded),
			applied(2, m2, migrator.StateFailed),
		}

		res, err := migrator.Verify(migrations, history, migrator.VerifyOptions{IgnoreFailed: true})
		require.NoError(t, err)

		// The failed attempt never counts as applied.
		require.Equal(t, 1, res.LastVersion)
		require.Len(t, res.Pending, 2)
		require.Equal(t, 2, res.Pending[0].Version)
	})

	t.Run("in-progress version aborts without IgnoreConcurrent", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateInProgress),
		}

		_, err := migrator.Verify(migrations, history, migrator.VerifyOptions{})

		var concurrent *migrator.ConcurrentMigrationError
		require.ErrorAs(t, err, &concurrent)
		require.Equal(t, 1, concurrent.Version)
	})

	t.Run("in-progress version becomes pending with IgnoreConcurrent", func(t *testing.T) {
		history := migrator.History{
			applied(1, m1, migrator.StateInProgress),
		}

		res, err := migrator.Verify(migrations, history, migrator.VerifyOptions{IgnoreConcurrent: true})
		require.NoError(t, err)
		require.Equal(t, 0, res.LastVersion)
		require.Len(t, res.Pending, 3)
	})

	t.Run("drift check skipped for ignored failed row", func(t *testing.T) {
		// A failed attempt's snapshot may legitimately differ from the
		// fixed-up migration on disk; it is pending, not inconsistent.
		rec := applied(1, m1, migrator.StateFailed)
		rec.Content = "CREATE TABLE users (broken"
		rec.Checksum = mig(m1.Name, rec.Content).Checksum

		res, err := migrator.Verify(migrations, migrator.History{rec}, migrator.VerifyOptions{IgnoreFailed: true})
		require.NoError(t, err)
		require.Equal(t, 0, res.LastVersion)
		require.Equal(t, 1, res.Pending[0].Version)
	})
}

package cassandra_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/cassmigrate/cassmigrate/pkg/cassandra"
	"github.com/cassmigrate/cassmigrate/pkg/docker"
	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/require"
)

// skipIfNoDocker skips the test if Docker is not available
func skipIfNoDocker(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}
	if err := exec.Command("docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

func startCassandra(t *testing.T) (host string, port int) {
	t.Helper()

	ctx := context.Background()
	container := docker.NewContainer(docker.Options{})
	require.NoError(t, container.Start(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_ = container.Stop(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err = container.Port(ctx)
	require.NoError(t, err)
	return host, port
}

func TestClientAgainstCassandra(t *testing.T) {
	skipIfNoDocker(t)

	host, port := startCassandra(t)
	ctx := context.Background()

	client, err := cassandra.NewClient(cassandra.Config{
		Hosts:    []string{host},
		Port:     port,
		Keyspace: "cassmigrate_it",
		Table:    "database_migrations",
		Replication: map[string]any{
			"class":              "SimpleStrategy",
			"replication_factor": 1,
		},
		DurableWrites: true,
	})
	require.NoError(t, err)
	defer client.Close()

	t.Run("keyspace and table lifecycle", func(t *testing.T) {
		exists, err := client.KeyspaceExists(ctx)
		require.NoError(t, err)
		require.False(t, exists)

		require.NoError(t, client.EnsureKeyspace(ctx))

		exists, err = client.KeyspaceExists(ctx)
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = client.TableExists(ctx)
		require.NoError(t, err)
		require.False(t, exists)

		require.NoError(t, client.EnsureTable(ctx))

		exists, err = client.TableExists(ctx)
		require.NoError(t, err)
		require.True(t, exists)

		// Both are idempotent.
		require.NoError(t, client.EnsureKeyspace(ctx))
		require.NoError(t, client.EnsureTable(ctx))
	})

	t.Run("conditional version writes", func(t *testing.T) {
		rec := &migrator.VersionRecord{
			ID:       gocql.TimeUUID(),
			Version:  1,
			Name:     "001_users.cql",
			Content:  "CREATE TABLE users (id uuid PRIMARY KEY);",
			Checksum: []byte{0x01, 0x02},
			State:    migrator.StateInProgress,
		}

		applied, err := client.InsertVersion(ctx, rec)
		require.NoError(t, err)
		require.True(t, applied)

		// Same ID loses the insert race.
		applied, err = client.InsertVersion(ctx, rec)
		require.NoError(t, err)
		require.False(t, applied)

		applied, err = client.FinalizeVersion(ctx, rec.ID, migrator.StateSucceeded)
		require.NoError(t, err)
		require.True(t, applied)

		// The row is no longer IN_PROGRESS, so finalize and the failed-state
		// delete both lose.
		applied, err = client.FinalizeVersion(ctx, rec.ID, migrator.StateFailed)
		require.NoError(t, err)
		require.False(t, applied)

		applied, err = client.DeleteVersion(ctx, rec.ID, migrator.StateFailed)
		require.NoError(t, err)
		require.False(t, applied)

		records, err := client.ListVersions(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, migrator.StateSucceeded, records[0].State)
		require.Equal(t, rec.Checksum, records[0].Checksum)
		require.False(t, records[0].AppliedAt.IsZero())
	})

	t.Run("drop keyspace", func(t *testing.T) {
		require.NoError(t, client.UseKeyspace(ctx))
		require.NoError(t, client.DropKeyspace(ctx))

		exists, err := client.KeyspaceExists(ctx)
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestMigratorAgainstCassandra(t *testing.T) {
	skipIfNoDocker(t)

	host, port := startCassandra(t)
	ctx := context.Background()

	client, err := cassandra.NewClient(cassandra.Config{
		Hosts:    []string{host},
		Port:     port,
		Keyspace: "cassmigrate_e2e",
		Table:    "database_migrations",
		Replication: map[string]any{
			"class":              "SimpleStrategy",
			"replication_factor": 1,
		},
		DurableWrites: true,
	})
	require.NoError(t, err)
	defer client.Close()

	migrations := &migration.MigrationDir{Migrations: []*migration.Migration{
		migration.New("001_users.cql", "CREATE TABLE users (id uuid PRIMARY KEY, email text);", migration.KindCQL),
		migration.New("002_events.cql", "CREATE TABLE events (id uuid PRIMARY KEY);\nCREATE INDEX ON events (id);", migration.KindCQL),
	}}

	m := migrator.New(migrator.Config{Store: client, Migrations: migrations})

	require.NoError(t, m.Migrate(ctx, migrator.MigrateOptions{}))

	status, err := m.CurrentStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, status.LastVersion)
	require.Empty(t, status.Pending)

	// Re-running is a no-op.
	require.NoError(t, m.Migrate(ctx, migrator.MigrateOptions{}))

	require.NoError(t, m.Clear(ctx))

	exists, err := client.KeyspaceExists(ctx)
	require.NoError(t, err)
	require.False(t, exists)
}

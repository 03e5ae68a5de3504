package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return Run(context.Background(), Version{Version: "test"}, append([]string{"cassmigrate"}, args...))
}

func TestInitAndGenerate(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, run(t, "init", "--keyspace", "events"))

	require.FileExists(t, "cassmigrate.yaml")
	info, err := os.Stat("migrations")
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.NoError(t, run(t, "generate", "add", "users"))
	require.FileExists(t, filepath.Join("migrations", "001_add_users.cql"))

	require.NoError(t, run(t, "generate", "--hook", "backfill", "emails"))
	require.FileExists(t, filepath.Join("migrations", "002_backfill_emails.hook"))
}

func TestGenerateRequiresConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	currentConfig = nil

	require.ErrorContains(t, run(t, "generate", "add", "users"), "config file not found")
}

func TestDestructiveCommandsNeedConfirmation(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("cassmigrate.yaml", []byte("keyspace: events\n"), 0o644))

	// Stdin is not a terminal under go test, so without --assume-yes the
	// command must fail instead of silently doing nothing.
	for _, name := range []string{"reset", "clear"} {
		t.Run(name, func(t *testing.T) {
			require.ErrorContains(t, run(t, name), "--assume-yes")
		})
	}
}

func TestInitIntoDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, run(t, "init", "project"))
	require.FileExists(t, filepath.Join("project", "cassmigrate.yaml"))
}

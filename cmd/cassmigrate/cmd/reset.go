package cmd

import (
	"context"
	"log/slog"

	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// resetCmd creates the reset command which drops the keyspace and
// re-applies every migration from scratch.
//
// Example usage:
//
//	# Rebuild the keyspace from migration one
//	cassmigrate reset
//
//	# Rebuild without the confirmation prompt
//	cassmigrate -y reset
func resetCmd() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Drop the keyspace and reapply all migrations",
		ArgsUsage: "[version]",
		Description: `Reset database state by dropping the keyspace (if it exists) and
rebuilding it, applying every migration from the beginning up to the
target version. All data in the keyspace is lost.`,
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := confirm(cmd, "reset"); err != nil {
				return err
			}

			m, client, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			slog.Info("Resetting database",
				"keyspace", currentConfig.Keyspace,
				"target", cmd.Args().First(),
			)

			return m.Reset(ctx, migrator.MigrateOptions{
				Target: cmd.Args().First(),
			})
		},
	}
}

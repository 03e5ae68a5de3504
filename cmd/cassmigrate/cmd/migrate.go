package cmd

import (
	"context"
	"log/slog"

	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// migrateCmd creates the migrate command for applying pending migrations.
//
// The command verifies the stored version history against the migration
// files on disk, then applies every pending migration up to the target
// version (latest when no version argument is given). Each migration is
// opened and finalized with lightweight transactions, so two racing
// invocations never apply the same version twice - the loser stops with a
// concurrency error.
//
// Example usage:
//
//	# Apply all pending migrations
//	cassmigrate migrate
//
//	# Migrate up to version 4 only
//	cassmigrate migrate 4
//
//	# Retry after a failed attempt, cleaning up the failed record
//	cassmigrate migrate --force
func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:      "migrate",
		Usage:     "Apply pending migrations",
		ArgsUsage: "[version]",
		Description: `Migrate the database up to the most recent (or specified) version by
applying any new migration scripts in sequence.

The target version may be a number or the name of a migration file. When a
previous attempt failed, migrate refuses to continue unless --force is
given, which deletes the failed record and retries it.`,
		Before: requireConfig,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "force migration even if the last attempt failed",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, client, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			slog.Info("Starting migration",
				"keyspace", currentConfig.Keyspace,
				"target", cmd.Args().First(),
				"force", cmd.Bool("force"),
			)

			return m.Migrate(ctx, migrator.MigrateOptions{
				Target: cmd.Args().First(),
				Force:  cmd.Bool("force"),
			})
		},
	}
}

package cmd

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// clearCmd creates the clear command which drops the keyspace, including
// the version history table, without rebuilding anything.
//
// Example usage:
//
//	# Drop the keyspace entirely
//	cassmigrate clear
func clearCmd() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Drop the keyspace and all its data",
		Description: `Clear database state by dropping the keyspace if it exists. This
removes every table in the keyspace, including the migration history.
All data in the keyspace is lost.`,
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := confirm(cmd, "clear"); err != nil {
				return err
			}

			m, client, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			slog.Info("Clearing database", "keyspace", currentConfig.Keyspace)

			return m.Clear(ctx)
		},
	}
}

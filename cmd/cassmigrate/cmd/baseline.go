package cmd

import (
	"context"
	"log/slog"

	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/urfave/cli/v3"
)

// baselineCmd creates the baseline command for adopting cassmigrate on a
// database whose schema already exists: version records are written as
// SKIPPED without executing any migration content.
//
// Example usage:
//
//	# Mark every migration as applied without running it
//	cassmigrate baseline
//
//	# Baseline up to version 2 only
//	cassmigrate baseline 2
func baselineCmd() *cli.Command {
	return &cli.Command{
		Name:      "baseline",
		Usage:     "Advance migration state without making changes",
		ArgsUsage: "[version]",
		Description: `Baseline database state, advancing the version history up to the target
version without executing any migration scripts. Use this when the schema
was created by other means and cassmigrate is taking over from here.`,
		Before: requireConfig,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, client, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			slog.Info("Baselining database",
				"keyspace", currentConfig.Keyspace,
				"target", cmd.Args().First(),
			)

			return m.Baseline(ctx, migrator.BaselineOptions{
				Target: cmd.Args().First(),
			})
		},
	}
}

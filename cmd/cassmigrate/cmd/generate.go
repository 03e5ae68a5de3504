package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/urfave/cli/v3"
)

// generateCmd creates the generate command which scaffolds the next
// migration file in the configured migrations directory.
//
// Example usage:
//
//	# Scaffold 003_add_user_index.cql
//	cassmigrate generate add user index
//
//	# Scaffold a hook migration instead of a CQL script
//	cassmigrate generate --hook backfill emails
func generateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Create a new migration file",
		ArgsUsage: "<description>",
		Description: `Create the next sequential migration file in the migrations directory.
The filename is built from the next version number and a sanitized form
of the description.`,
		Before: requireConfig,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "hook",
				Usage: "generate a hook migration instead of a CQL script",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind := migration.KindCQL
			if cmd.Bool("hook") {
				kind = migration.KindHook
			}

			description := strings.Join(cmd.Args().Slice(), " ")

			path, err := migration.Generate(currentConfig.MigrationsPath, description, kind)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.Writer, "Created", path)
			return nil
		},
	}
}

package cmd

import (
	"context"
	"os"

	"github.com/cassmigrate/cassmigrate/pkg/project"
	"github.com/urfave/cli/v3"
)

// initCmd creates the init command which scaffolds a new project: the
// config file plus an empty migrations directory. Initialization is
// idempotent, so running it in a populated directory preserves existing
// files.
//
// Example usage:
//
//	# Initialize a project in the current directory
//	cassmigrate init --keyspace events
func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Initialize a project in the current directory",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "keyspace",
				Aliases: []string{"k"},
				Usage:   "keyspace name to write to the generated config",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "."
			}

			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return err
			}

			return project.New(dir).Initialize(project.InitOptions{
				Keyspace: cmd.String("keyspace"),
			})
		},
	}
}

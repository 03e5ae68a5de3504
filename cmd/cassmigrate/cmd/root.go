package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cassmigrate/cassmigrate/pkg/cassandra"
	"github.com/cassmigrate/cassmigrate/pkg/config"
	"github.com/cassmigrate/cassmigrate/pkg/consts"
	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

// Version holds the build metadata stamped into the binary.
type Version struct {
	Version   string
	Commit    string
	Timestamp string
}

var currentConfig *config.Config

// Run creates and executes the main cassmigrate CLI application with the
// given version and command-line arguments.
//
// Global flags configure the cluster connection (contact points, port,
// credentials, protocol version, TLS certificates) and select the project
// config file and keyspace profile. The config file is loaded before any
// subcommand runs; commands that need it fail when it's missing.
//
// Example usage:
//
//	# Migrate to the latest version
//	err := Run(ctx, v, []string{"cassmigrate", "migrate"})
//
//	# Migrate a remote cluster to version 4
//	err := Run(ctx, v, []string{"cassmigrate", "-H", "10.0.0.1,10.0.0.2", "migrate", "4"})
func Run(ctx context.Context, version Version, args []string) error {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", version.Version)
		fmt.Fprintln(cmd.Writer, "Commit:", version.Commit)
		fmt.Fprintln(cmd.Writer, "Date:", version.Timestamp)
	}

	app := &cli.Command{
		Name:  "cassmigrate",
		Usage: "A schema migration tool for Cassandra",
		Description: `cassmigrate applies ordered CQL migration scripts to a Cassandra
cluster, tracking applied versions in a table inside the same cluster.
Concurrent invocations coordinate purely through lightweight transactions,
so racing deployments never apply the same migration twice.`,
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the project configuration file",
				Sources: cli.EnvVars("CASSMIGRATE_CONFIG"),
				Value:   consts.DefaultConfigFile,
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"m"},
				Usage:   "name of the keyspace profile to use",
				Value:   consts.DefaultProfile,
			},
			&cli.StringFlag{
				Name:    "hosts",
				Aliases: []string{"H"},
				Usage:   "comma-separated list of contact points",
				Value:   "127.0.0.1",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "connection port",
				Value:   consts.DefaultPort,
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "connection username",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"P"},
				Usage:   "connection password",
			},
			&cli.IntFlag{
				Name:    "protocol-version",
				Aliases: []string{"l"},
				Usage:   "connection protocol version",
				Value:   consts.DefaultProtocolVersion,
			},
			&cli.StringFlag{
				Name:  "cafile",
				Usage: "certificate authority pem; enables TLS when set",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "certfile",
				Usage: "certificate public key file",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "keyfile",
				Usage: "certificate private key file",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:    "assume-yes",
				Aliases: []string{"y"},
				Usage:   "automatically answer \"yes\" for all questions",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			path := cmd.String("config")

			if _, err := os.Stat(path); os.IsNotExist(err) {
				// Commands that need the config report this themselves.
				return ctx, nil
			}

			cfg, err := config.LoadConfigFile(path)
			if err != nil {
				return ctx, err
			}

			currentConfig = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			initCmd(),
			migrateCmd(),
			resetCmd(),
			clearCmd(),
			baselineCmd(),
			statusCmd(),
			generateCmd(),
			devCmd(),
		},
	}

	return app.Run(ctx, args)
}

func requireConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if currentConfig == nil {
		return ctx, errors.Errorf("config file not found: %s", cmd.String("config"))
	}

	return ctx, nil
}

// newMigrator builds the gocql-backed store and migrator from the global
// flags and the loaded config. The returned client must be closed by the
// caller.
func newMigrator(cmd *cli.Command) (*migrator.Migrator, *cassandra.Client, error) {
	profile, err := currentConfig.Profile(cmd.String("profile"))
	if err != nil {
		return nil, nil, err
	}

	dir, err := migration.LoadMigrationDir(os.DirFS(currentConfig.MigrationsPath))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load migrations")
	}

	client, err := cassandra.NewClient(cassandra.Config{
		Hosts:           strings.Split(cmd.String("hosts"), ","),
		Port:            int(cmd.Int("port")),
		Keyspace:        currentConfig.Keyspace,
		Table:           currentConfig.MigrationsTable,
		Username:        cmd.String("user"),
		Password:        cmd.String("password"),
		ProtocolVersion: int(cmd.Int("protocol-version")),
		TLSSettings: cassandra.TLSSettings{
			CAFile:   cmd.String("cafile"),
			CertFile: cmd.String("certfile"),
			KeyFile:  cmd.String("keyfile"),
		},
		Replication:   profile.Replication,
		DurableWrites: profile.Durable(),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to cluster")
	}

	m := migrator.New(migrator.Config{
		Store:      client,
		Migrations: dir,
	})

	return m, client, nil
}

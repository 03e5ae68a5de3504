package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cassmigrate/cassmigrate/pkg/cassandra"
	"github.com/cassmigrate/cassmigrate/pkg/docker"
	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
)

const devContainerName = "cassmigrate-dev"

// devCmd creates the dev command group for managing a local Cassandra
// development server.
//
// Example usage:
//
//	# Start a local Cassandra and apply all migrations
//	cassmigrate dev up
//
//	# Stop and remove the server
//	cassmigrate dev down
func devCmd() *cli.Command {
	return &cli.Command{
		Name:   "dev",
		Usage:  "Manage a local Cassandra development server",
		Before: requireConfig,
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Start a Cassandra development server and apply migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "cassandra-version",
						Usage: "Cassandra image tag to run",
						Value: "4.1",
					},
				},
				Action: runDevUp,
			},
			{
				Name:   "down",
				Usage:  "Stop and remove the Cassandra development server",
				Action: runDevDown,
			},
		},
	}
}

func runDevUp(ctx context.Context, cmd *cli.Command) error {
	if devContainerRunning(ctx) {
		fmt.Fprintln(cmd.Writer, "Cassandra development server is already running")
		fmt.Fprintln(cmd.Writer, "Use 'cassmigrate dev down' to stop it first")
		return nil
	}

	version := cmd.String("cassandra-version")
	fmt.Fprintf(cmd.Writer, "Starting Cassandra %s container...\n", version)

	container := docker.NewContainer(docker.Options{
		Version: version,
		Name:    devContainerName,
	})
	if err := container.Start(ctx); err != nil {
		return err
	}
	// The container stays up after we exit; dev down removes it.

	host, err := container.Host(ctx)
	if err != nil {
		return err
	}
	port, err := container.Port(ctx)
	if err != nil {
		return err
	}

	if err := applyDevMigrations(ctx, cmd, host, port); err != nil {
		return err
	}

	printDevConnectionDetails(cmd, host, port)
	return nil
}

func runDevDown(ctx context.Context, cmd *cli.Command) error {
	if !devContainerRunning(ctx) {
		fmt.Fprintln(cmd.Writer, "No Cassandra development server is currently running")
		return nil
	}

	engine, closer, err := dockerEngine()
	if err != nil {
		return err
	}
	defer closer()

	if err := engine.Stop(ctx, devContainerName); err != nil {
		return errors.Wrap(err, "failed to stop development server")
	}

	fmt.Fprintln(cmd.Writer, "Cassandra development server stopped")
	return nil
}

func applyDevMigrations(ctx context.Context, cmd *cli.Command, host string, port int) error {
	dir, err := migration.LoadMigrationDir(os.DirFS(currentConfig.MigrationsPath))
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}

	profile, err := currentConfig.Profile(cmd.String("profile"))
	if err != nil {
		return err
	}

	store, err := cassandra.NewClient(cassandra.Config{
		Hosts:           []string{host},
		Port:            port,
		Keyspace:        currentConfig.Keyspace,
		Table:           currentConfig.MigrationsTable,
		ProtocolVersion: int(cmd.Int("protocol-version")),
		Replication:     profile.Replication,
		DurableWrites:   profile.Durable(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to connect to development server")
	}
	defer store.Close()

	m := migrator.New(migrator.Config{Store: store, Migrations: dir})
	return m.Migrate(ctx, migrator.MigrateOptions{})
}

func printDevConnectionDetails(cmd *cli.Command, host string, port int) {
	line := strings.Repeat("=", 60)

	fmt.Fprintln(cmd.Writer, "\n"+line)
	fmt.Fprintln(cmd.Writer, "Cassandra Development Server Started")
	fmt.Fprintln(cmd.Writer, line)
	fmt.Fprintf(cmd.Writer, "Contact point: %s:%d\n", host, port)
	fmt.Fprintf(cmd.Writer, "Keyspace:      %s\n", currentConfig.Keyspace)
	fmt.Fprintln(cmd.Writer, "\nUse 'cassmigrate dev down' to stop the server")
	fmt.Fprintln(cmd.Writer, line)
}

func devContainerRunning(ctx context.Context) bool {
	engine, closer, err := dockerEngine()
	if err != nil {
		return false
	}
	defer closer()

	info, err := engine.Get(ctx, devContainerName)
	return err == nil && info.State == "running"
}

func dockerEngine() (*docker.Engine, func(), error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create Docker client")
	}

	return docker.NewEngine(cli), func() { _ = cli.Close() }, nil
}

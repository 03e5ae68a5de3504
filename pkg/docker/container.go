package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/cassandra"
	"github.com/testcontainers/testcontainers-go/wait"
)

// DefaultCassandraPort is the native protocol port Cassandra listens on.
const DefaultCassandraPort = 9042

type (
	// Options configures the Cassandra container.
	Options struct {
		// Version is the Cassandra image tag to run (default: 4.1).
		Version string

		// Name optionally pins the container name so it can be found and
		// stopped by a later invocation.
		Name string

		// ConfigFile is an optional cassandra.yaml to mount into the
		// container.
		ConfigFile string
	}

	// Container manages a Cassandra Docker container for migration
	// development and testing.
	Container struct {
		options   Options
		container *cassandra.CassandraContainer
	}
)

// NewContainer creates a container manager with the given options. Nothing
// is started until Start is called.
func NewContainer(opts Options) *Container {
	return &Container{options: opts}
}

// Start starts a Cassandra container with the configured version and waits
// until the native protocol port accepts connections.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = "4.1"
	}

	customizers := []testcontainers.ContainerCustomizer{
		// Keep the JVM small; a dev server doesn't need production heap.
		testcontainers.WithEnv(map[string]string{
			"HEAP_NEWSIZE":  "128M",
			"MAX_HEAP_SIZE": "1024M",
		}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.ForListeningPort(nat.Port(fmt.Sprintf("%d/tcp", DefaultCassandraPort))),
		),
	}

	if c.options.Name != "" {
		customizers = append(customizers, testcontainers.CustomizeRequest(
			testcontainers.GenericContainerRequest{
				ContainerRequest: testcontainers.ContainerRequest{Name: c.options.Name},
			},
		))
	}

	if c.options.ConfigFile != "" {
		customizers = append(customizers, cassandra.WithConfigFile(c.options.ConfigFile))
	}

	container, err := cassandra.Run(ctx, fmt.Sprintf("cassandra:%s", version), customizers...)
	if err != nil {
		return errors.Wrap(err, "failed to start Cassandra container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the container. Stopping an already stopped
// container is a no-op.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	return errors.Wrap(err, "failed to stop Cassandra container")
}

// Host returns the address the container's native protocol port is
// reachable at.
func (c *Container) Host(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	host, err := c.container.Host(ctx)
	return host, errors.Wrap(err, "failed to get container host")
}

// Port returns the host port mapped to the container's native protocol
// port.
func (c *Container) Port(ctx context.Context) (int, error) {
	if c.container == nil {
		return 0, errors.New("container is not running")
	}

	port, err := c.container.MappedPort(ctx, nat.Port(fmt.Sprintf("%d/tcp", DefaultCassandraPort)))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get container port")
	}

	return port.Int(), nil
}

// IsRunning reports whether the container has been started.
func (c *Container) IsRunning() bool {
	return c.container != nil
}

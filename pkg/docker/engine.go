package docker

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/pkg/errors"
)

var runningContainers = filters.Arg("status", "running")

type (
	// DockerClient is the subset of the Docker API used by Engine. It is
	// satisfied by *client.Client and easy to fake in tests.
	DockerClient interface {
		ContainerList(context.Context, container.ListOptions) ([]container.Summary, error)
		ContainerStop(context.Context, string, container.StopOptions) error
		ContainerRemove(context.Context, string, container.RemoveOptions) error
		ContainerInspect(context.Context, string) (container.InspectResponse, error)
	}

	// Engine finds and stops containers by name or ID. It exists so the dev
	// workflow can manage a Cassandra server started by a previous process.
	Engine struct {
		client DockerClient
	}

	// ContainerInfo describes a container known to the Docker daemon.
	ContainerInfo struct {
		Names []string
		Image string
		State string
	}
)

// NewEngine wraps an initialized Docker client.
//
// Example:
//
//	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cli.Close()
//
//	engine := docker.NewEngine(cli)
func NewEngine(cl DockerClient) *Engine {
	return &Engine{client: cl}
}

// List returns the running containers.
func (e *Engine) List(ctx context.Context) ([]*ContainerInfo, error) {
	list, err := e.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(runningContainers),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list running containers")
	}

	res := make([]*ContainerInfo, len(list))
	for i, c := range list {
		names := make([]string, len(c.Names))
		for j, name := range c.Names {
			names[j] = strings.TrimPrefix(name, "/")
		}

		res[i] = &ContainerInfo{
			Names: names,
			Image: c.Image,
			State: c.State,
		}
	}

	return res, nil
}

// Get inspects a single container by name or ID.
func (e *Engine) Get(ctx context.Context, nameOrID string) (*ContainerInfo, error) {
	inspect, err := e.client.ContainerInspect(ctx, nameOrID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect container: %s", nameOrID)
	}

	var names []string
	if inspect.Name != "" {
		names = []string{strings.TrimPrefix(inspect.Name, "/")}
	}

	return &ContainerInfo{
		Names: names,
		Image: inspect.Config.Image,
		State: inspect.State.Status,
	}, nil
}

// Stop stops and removes a container by name or ID.
func (e *Engine) Stop(ctx context.Context, nameOrID string) error {
	timeout := 30
	if err := e.client.ContainerStop(ctx, nameOrID, container.StopOptions{
		Timeout: &timeout,
	}); err != nil {
		return errors.Wrapf(err, "failed to stop container: %s", nameOrID)
	}

	if err := e.client.ContainerRemove(ctx, nameOrID, container.RemoveOptions{
		Force: true,
	}); err != nil {
		return errors.Wrapf(err, "failed to remove container: %s", nameOrID)
	}

	return nil
}

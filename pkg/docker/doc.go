// Package docker runs disposable Cassandra instances for local development
// and integration testing.
//
// Container wraps the testcontainers Cassandra module and exposes the
// connection details needed by the gocql-backed client. Engine wraps a raw
// Docker client for finding and stopping containers by name, which lets
// the dev workflow reconnect to a server started by an earlier invocation.
//
// Example:
//
//	container := docker.NewContainer(docker.Options{Version: "4.1"})
//
//	ctx := context.Background()
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
//
//	host, _ := container.Host(ctx)
//	port, _ := container.Port(ctx)
//
//	// Connect with the cassandra client
//	client, _ := cassandra.NewClient(cassandra.Config{
//		Hosts: []string{host},
//		Port:  port,
//	})
package docker

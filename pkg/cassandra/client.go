// Package cassandra provides the gocql-backed store used by the migration
// engine: conditional (lightweight transaction) writes against the version
// table, keyspace and table management, and arbitrary statement execution.
package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/cassmigrate/cassmigrate/pkg/migrator"
	"github.com/cassmigrate/cassmigrate/pkg/utils"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

type (
	// Config describes a connection to a cluster plus the keyspace profile
	// the migration engine operates on.
	Config struct {
		// Hosts are the cluster contact points.
		Hosts []string

		// Port is the CQL native protocol port (default 9042).
		Port int

		// Keyspace is the keyspace being migrated.
		Keyspace string

		// Table is the version tracking table within Keyspace.
		Table string

		// Username and Password enable password authentication when set.
		Username string
		Password string

		// ProtocolVersion is the CQL protocol version (default 4).
		ProtocolVersion int

		// TLSSettings enables TLS when CAFile is set.
		TLSSettings TLSSettings

		// Replication is the keyspace replication map used when the
		// keyspace has to be created (e.g. {"class": "SimpleStrategy",
		// "replication_factor": 1}).
		Replication map[string]any

		// DurableWrites is the keyspace durable_writes setting used when
		// the keyspace has to be created.
		DurableWrites bool
	}

	// Client is a live connection to the cluster implementing
	// migrator.Store. Create with NewClient and Close when done.
	Client struct {
		cfg      Config
		session  *gocql.Session
		keyspace bool // session is bound to cfg.Keyspace
	}
)

const (
	createTableCQL = `
CREATE TABLE %s (
    id uuid,
    version int,
    name text,
    content text,
    checksum blob,
    state text,
    applied_at timestamp,
    PRIMARY KEY (id)
) WITH caching = {'keys': 'NONE', 'rows_per_partition': 'NONE'}`

	createKeyspaceCQL = `CREATE KEYSPACE %s WITH REPLICATION = %s AND DURABLE_WRITES = %s`

	dropKeyspaceCQL = `DROP KEYSPACE IF EXISTS %s`

	insertVersionCQL = `
INSERT INTO %s (id, version, name, content, checksum, state, applied_at)
VALUES (?, ?, ?, ?, ?, ?, toTimestamp(now())) IF NOT EXISTS`

	finalizeVersionCQL = `UPDATE %s SET state = ? WHERE id = ? IF state = ?`

	deleteVersionCQL = `DELETE FROM %s WHERE id = ? IF state = ?`

	selectVersionsCQL = `SELECT id, version, name, content, checksum, state, applied_at FROM %s`
)

// table returns the quoted, keyspace-qualified version table name.
func (c *Client) table() string {
	return utils.QuoteQualifiedName(c.cfg.Keyspace, c.cfg.Table)
}

// NewClient connects to the cluster and returns a store for the configured
// keyspace. The session is created without a keyspace binding so the
// keyspace itself can be created; UseKeyspace re-binds it later.
//
// Example usage:
//
//	client, err := cassandra.NewClient(cassandra.Config{
//		Hosts:    []string{"127.0.0.1"},
//		Keyspace: "events",
//		Table:    "database_migrations",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(cfg Config) (*Client, error) {
	c := &Client{cfg: cfg}

	session, err := c.connect("")
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to cluster")
	}

	c.session = session
	return c, nil
}

// connect creates a session, optionally bound to a keyspace.
func (c *Client) connect(keyspace string) (*gocql.Session, error) {
	cluster := gocql.NewCluster(c.cfg.Hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.All
	cluster.SerialConsistency = gocql.Serial
	cluster.PoolConfig.HostSelectionPolicy = gocql.RoundRobinHostPolicy()
	cluster.Timeout = 120 * time.Second
	cluster.ConnectTimeout = 30 * time.Second
	cluster.MaxWaitSchemaAgreement = 300 * time.Second

	if c.cfg.Port != 0 {
		cluster.Port = c.cfg.Port
	}
	if c.cfg.ProtocolVersion != 0 {
		cluster.ProtoVersion = c.cfg.ProtocolVersion
	}
	if c.cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.cfg.Username,
			Password: c.cfg.Password,
		}
	}

	if c.cfg.TLSSettings.CAFile != "" {
		tlsConfig, err := GetTLSConfig(c.cfg.TLSSettings)
		if err != nil {
			return nil, err
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tlsConfig}
	}

	return cluster.CreateSession()
}

// Close shuts down the underlying session.
func (c *Client) Close() {
	c.session.Close()
}

// Execute runs a single statement against the cluster.
func (c *Client) Execute(ctx context.Context, stmt string, values ...any) error {
	return c.session.Query(stmt, values...).WithContext(ctx).Exec()
}

// InsertVersion conditionally inserts an attempt record, applying only if
// no row exists with its ID. The server assigns applied_at.
func (c *Client) InsertVersion(ctx context.Context, rec *migrator.VersionRecord) (bool, error) {
	q := c.session.Query(
		fmt.Sprintf(insertVersionCQL, c.table()),
		rec.ID, rec.Version, rec.Name, rec.Content, rec.Checksum, string(rec.State),
	).WithContext(ctx)

	return q.MapScanCAS(map[string]any{})
}

// FinalizeVersion conditionally moves the identified row out of
// IN_PROGRESS into its terminal state.
func (c *Client) FinalizeVersion(ctx context.Context, id gocql.UUID, to migrator.State) (bool, error) {
	q := c.session.Query(
		fmt.Sprintf(finalizeVersionCQL, c.table()),
		string(to), id, string(migrator.StateInProgress),
	).WithContext(ctx)

	return q.MapScanCAS(map[string]any{})
}

// DeleteVersion conditionally deletes the identified row while it is still
// in the given state.
func (c *Client) DeleteVersion(ctx context.Context, id gocql.UUID, current migrator.State) (bool, error) {
	q := c.session.Query(
		fmt.Sprintf(deleteVersionCQL, c.table()),
		id, string(current),
	).WithContext(ctx)

	return q.MapScanCAS(map[string]any{})
}

// ListVersions scans the whole version table. Row order follows partition
// order; callers sort by version.
func (c *Client) ListVersions(ctx context.Context) ([]*migrator.VersionRecord, error) {
	iter := c.session.Query(
		fmt.Sprintf(selectVersionsCQL, c.table()),
	).WithContext(ctx).Iter()

	var records []*migrator.VersionRecord
	for {
		rec := &migrator.VersionRecord{}
		var state string

		if !iter.Scan(&rec.ID, &rec.Version, &rec.Name, &rec.Content, &rec.Checksum, &state, &rec.AppliedAt) {
			break
		}

		rec.State = migrator.State(state)
		records = append(records, rec)
	}

	if err := iter.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to scan version table")
	}

	return records, nil
}

// KeyspaceExists reports whether the configured keyspace exists.
func (c *Client) KeyspaceExists(ctx context.Context) (bool, error) {
	var name string
	err := c.session.Query(
		`SELECT keyspace_name FROM system_schema.keyspaces WHERE keyspace_name = ?`,
		c.cfg.Keyspace,
	).WithContext(ctx).Scan(&name)

	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check keyspace")
	}

	return true, nil
}

// EnsureKeyspace creates the configured keyspace with the configured
// replication settings if it does not exist.
func (c *Client) EnsureKeyspace(ctx context.Context) error {
	exists, err := c.KeyspaceExists(ctx)
	if err != nil || exists {
		return err
	}

	replication, err := DDLRepr(c.cfg.Replication)
	if err != nil {
		return errors.Wrap(err, "invalid replication settings")
	}
	durable, err := DDLRepr(c.cfg.DurableWrites)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(createKeyspaceCQL, utils.QuoteIdentifier(c.cfg.Keyspace), replication, durable)
	if err := c.Execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to create keyspace %s", c.cfg.Keyspace)
	}

	return c.RefreshSchema(ctx)
}

// TableExists reports whether the version table exists. The keyspace must
// already exist; if keyspace creation is wanted, EnsureKeyspace has to run
// first.
func (c *Client) TableExists(ctx context.Context) (bool, error) {
	exists, err := c.KeyspaceExists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, errors.Errorf("keyspace %s does not exist, stopping", c.cfg.Keyspace)
	}

	var name string
	err = c.session.Query(
		`SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?`,
		c.cfg.Keyspace, c.cfg.Table,
	).WithContext(ctx).Scan(&name)

	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to check migrations table")
	}

	return true, nil
}

// EnsureTable creates the version table if it does not exist.
func (c *Client) EnsureTable(ctx context.Context) error {
	exists, err := c.TableExists(ctx)
	if err != nil || exists {
		return err
	}

	stmt := fmt.Sprintf(createTableCQL, c.table())
	if err := c.Execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to create table %s", c.cfg.Table)
	}

	return c.RefreshSchema(ctx)
}

// DropKeyspace drops the configured keyspace if it exists. The session is
// re-bound to no keyspace first, since dropping the bound keyspace would
// invalidate it.
func (c *Client) DropKeyspace(ctx context.Context) error {
	if c.keyspace {
		session, err := c.connect("")
		if err != nil {
			return errors.Wrap(err, "failed to unbind keyspace")
		}

		c.session.Close()
		c.session = session
		c.keyspace = false
	}

	return c.Execute(ctx, fmt.Sprintf(dropKeyspaceCQL, utils.QuoteIdentifier(c.cfg.Keyspace)))
}

// UseKeyspace re-binds the session to the configured keyspace so migration
// scripts can reference tables without qualifying them. gocql sessions fix
// their keyspace at connect time, so this opens a fresh session.
func (c *Client) UseKeyspace(_ context.Context) error {
	if c.keyspace {
		return nil
	}

	session, err := c.connect(c.cfg.Keyspace)
	if err != nil {
		return errors.Wrapf(err, "failed to bind keyspace %s", c.cfg.Keyspace)
	}

	c.session.Close()
	c.session = session
	c.keyspace = true
	return nil
}

// RefreshSchema waits for cluster-wide schema agreement so later reads see
// the effects of any DDL just executed.
func (c *Client) RefreshSchema(ctx context.Context) error {
	return c.session.AwaitSchemaAgreement(ctx)
}

package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the project configuration file looked up when no
	// --config flag is given
	DefaultConfigFile = "cassmigrate.yaml"

	// DefaultMigrationsTable is the table used to track applied migrations
	// when the config doesn't name one
	DefaultMigrationsTable = "database_migrations"

	// DefaultMigrationsPath is the directory migrations are loaded from when
	// the config doesn't name one
	DefaultMigrationsPath = "migrations"

	// DefaultProfile is the keyspace profile used when none is selected
	DefaultProfile = "dev"

	// DefaultPort is the CQL native protocol port
	DefaultPort = 9042

	// DefaultProtocolVersion is the CQL protocol version used for new
	// connections
	DefaultProtocolVersion = 4
)

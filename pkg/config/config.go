// Package config loads the project configuration file describing the
// keyspace being migrated and the keyspace profiles used to create it.
package config

import (
	"io"
	"os"

	"github.com/cassmigrate/cassmigrate/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Profile holds the keyspace settings for one environment. Profiles
	// only matter when the keyspace has to be created.
	Profile struct {
		// Replication is the keyspace replication map (class plus
		// strategy-specific options).
		Replication map[string]any `yaml:"replication"`

		// DurableWrites is the keyspace durable_writes setting. Defaults
		// to true when omitted.
		DurableWrites *bool `yaml:"durable_writes"`
	}

	// Config represents the project configuration for schema migrations.
	Config struct {
		// Keyspace is the keyspace being migrated.
		Keyspace string `yaml:"keyspace"`

		// MigrationsTable is the version tracking table name.
		MigrationsTable string `yaml:"migrations_table"`

		// MigrationsPath is the directory migration files are loaded from.
		MigrationsPath string `yaml:"migrations_path"`

		// Profiles maps environment names to keyspace settings.
		Profiles map[string]Profile `yaml:"profiles"`
	}
)

// defaultProfile is used when the config defines no profiles at all: a
// single-node development setup.
var defaultProfile = Profile{
	Replication: map[string]any{
		"class":              "SimpleStrategy",
		"replication_factor": 1,
	},
}

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The configuration is YAML; keyspace is the only required field. Missing
// table and path settings fall back to the package defaults, and a missing
// profiles section gets a single-node dev profile.
//
// Example:
//
//	yamlData := `
//	keyspace: events
//	migrations_path: ./migrations
//	profiles:
//	  prod:
//	    replication:
//	      class: NetworkTopologyStrategy
//	      dc1: 3
//	    durable_writes: true
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Keyspace == "" {
		return nil, errors.New("config must name a keyspace")
	}

	if cfg.MigrationsTable == "" {
		cfg.MigrationsTable = consts.DefaultMigrationsTable
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = consts.DefaultMigrationsPath
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = map[string]Profile{consts.DefaultProfile: defaultProfile}
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file
// path. This is a convenience function that opens the file and calls
// LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Profile returns the named keyspace profile.
func (c *Config) Profile(name string) (*Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return nil, errors.Errorf("invalid profile name %q", name)
	}

	return &p, nil
}

// Durable reports the profile's durable_writes setting, defaulting to
// true.
func (p *Profile) Durable() bool {
	return p.DurableWrites == nil || *p.DurableWrites
}

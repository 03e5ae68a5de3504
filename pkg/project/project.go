// Package project scaffolds and manages cassmigrate project directories:
// a config file naming the keyspace plus a migrations directory.
package project

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing/fstest"

	"github.com/cassmigrate/cassmigrate/pkg/config"
	"github.com/cassmigrate/cassmigrate/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed embed/cassmigrate.yaml
	defaultConfig []byte

	image = fstest.MapFS{
		consts.DefaultMigrationsPath: {Mode: os.ModeDir | consts.ModeDir},
		consts.DefaultConfigFile:     {Data: defaultConfig},
	}
)

type (
	// InitOptions contains options for project initialization.
	InitOptions struct {
		// Keyspace overrides the keyspace name written to the generated
		// config file.
		Keyspace string
	}

	// Project represents a cassmigrate project rooted at a directory.
	Project struct {
		root   string
		config *config.Config
	}
)

// New creates a Project for the given root directory. The directory must
// already exist; Initialize fills in the missing pieces.
//
// Example:
//
//	p := project.New(".")
//	if err := p.Initialize(project.InitOptions{Keyspace: "events"}); err != nil {
//		log.Fatal(err)
//	}
func New(path string) *Project {
	return &Project{root: path}
}

// Initialize sets up the project directory structure and loads the
// configuration. It is idempotent: existing files and directories are
// preserved, only missing entries are created.
func (p *Project) Initialize(options InitOptions) error {
	if err := p.ensureDirectory(); err != nil {
		return err
	}

	for path, entry := range image {
		fullPath := filepath.Join(p.root, path)

		if _, err := os.Stat(fullPath); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create parent directory %s", filepath.Dir(fullPath))
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write file %s", fullPath)
		}
	}

	configPath := filepath.Join(p.root, consts.DefaultConfigFile)

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", consts.DefaultConfigFile)
	}

	if options.Keyspace != "" && options.Keyspace != cfg.Keyspace {
		cfg.Keyspace = options.Keyspace

		if err := writeConfig(configPath, cfg); err != nil {
			return err
		}
	}

	p.config = cfg
	return nil
}

// Config returns the loaded project configuration, or nil before
// Initialize has run.
func (p *Project) Config() *config.Config {
	return p.config
}

// MigrationsDir returns the absolute path of the project's migrations
// directory.
func (p *Project) MigrationsDir() string {
	return filepath.Join(p.root, p.config.MigrationsPath)
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}

func writeConfig(path string, cfg *config.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open config file for writing: %s", path)
	}
	defer func() { _ = f.Close() }()

	enc := yaml.NewEncoder(f)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write updated config")
	}

	return errors.Wrap(enc.Close(), "failed to close yaml encoder")
}

package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cassmigrate/cassmigrate/pkg/consts"
	"github.com/pkg/errors"
)

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

const (
	cqlTemplate = `-- Migration: %s
--
-- Each statement below is executed individually, in order. Statements must
-- be terminated with a semicolon.
`

	hookTemplate = `-- Migration: %s
--
-- The first non-comment line names a hook registered with
-- migration.RegisterHook. The hook receives a live database handle.
%s
`
)

// Generate scaffolds the next migration file in dir and returns its path.
//
// The filename is built from the next sequential version number and a
// sanitized form of the description (e.g. "003_add_user_index.cql"). For
// KindHook the generated file references a hook named after the sanitized
// description; the hook itself still needs to be registered in code.
//
// Example usage:
//
//	path, err := migration.Generate("./migrations", "add user index", migration.KindCQL)
//	// path == "migrations/003_add_user_index.cql"
func Generate(dir, description string, kind Kind) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", errors.New("migration description must not be empty")
	}

	// Count existing migrations without resolving hooks, so scaffolding
	// works from binaries that don't register any.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read migration dir: %s", dir)
	}

	next := 1
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case ".cql", ".hook":
			next++
		}
	}

	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(description), "_"), "_")
	if slug == "" {
		return "", errors.Errorf("description %q contains no usable characters", description)
	}

	ext := ".cql"
	content := fmt.Sprintf(cqlTemplate, description)
	if kind == KindHook {
		ext = ".hook"
		content = fmt.Sprintf(hookTemplate, description, slug)
	}

	name := fmt.Sprintf("%03d_%s%s", next, slug, ext)
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(content), consts.ModeFile); err != nil {
		return "", errors.Wrapf(err, "failed to write migration: %s", path)
	}

	return path, nil
}

package migration

import (
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// LoadMigrationDir loads all migration files from the provided filesystem
// and returns them in lexical filename order.
//
// Supported extensions:
//   - .cql: CQL scripts executed statement by statement
//   - .hook: references to hooks registered with RegisterHook
//
// The filesystem can be a regular directory, an embedded filesystem, or any
// other fs.FS implementation. Filenames must be unique; a .hook file whose
// named hook has not been registered is an error.
//
// Example usage:
//
//	dir, err := migration.LoadMigrationDir(os.DirFS("./migrations"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for i, m := range dir.Migrations {
//		fmt.Printf("version %d: %s\n", i+1, m.Name)
//	}
func LoadMigrationDir(dir fs.FS) (*MigrationDir, error) {
	exts := []string{".cql", ".hook"}
	md := &MigrationDir{}
	seen := make(map[string]struct{})

	// NB: WalkDir always walks in lexical order.
	if err := fs.WalkDir(dir, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		ext := filepath.Ext(path)
		if d.IsDir() || !slices.Contains(exts, ext) {
			return nil
		}

		f, err := dir.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open: %s", path)
		}
		defer func() { _ = f.Close() }()

		content, err := io.ReadAll(f)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration: %s", path)
		}

		name := filepath.Base(path)
		if _, ok := seen[name]; ok {
			return errors.Errorf("duplicate migration name: %s", name)
		}
		seen[name] = struct{}{}

		kind := KindCQL
		if ext == ".hook" {
			kind = KindHook
		}

		m := New(name, string(content), kind)
		m.Path = path

		if kind == KindHook {
			hookName := hookReference(m.Content)
			if hookName == "" {
				return errors.Errorf("hook migration %s names no hook", name)
			}

			hook, ok := LookupHook(hookName)
			if !ok {
				return errors.Errorf("hook migration %s references unregistered hook: %s", name, hookName)
			}
			m.Hook = hook
		}

		md.Migrations = append(md.Migrations, m)
		return nil
	}); err != nil {
		return nil, err
	}

	return md, nil
}

// hookReference extracts the registered hook name from a .hook file: the
// first line that is neither blank nor a comment.
func hookReference(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "//") {
			continue
		}

		return line
	}

	return ""
}

package migrator

import (
	"strconv"

	"github.com/cassmigrate/cassmigrate/pkg/migration"
	"github.com/pkg/errors"
)

// ResolveTarget parses a target version specifier against the full
// migration sequence.
//
// The specifier may be:
//   - empty: the latest version is chosen
//   - a number: that exact version is chosen
//   - anything else: the version of the migration with that name
//
// Resolution fails for versions below 1 and for unknown names.
func ResolveTarget(dir *migration.MigrationDir, spec string) (int, error) {
	version := dir.Latest()

	if spec != "" {
		if n, err := strconv.Atoi(spec); err == nil {
			version = n
		} else {
			version = dir.Position(spec)
		}
	}

	if version <= 0 {
		return 0, errors.Errorf(
			"invalid target version %q, must be a number > 0 or the name of an existing migration", spec)
	}

	return version, nil
}

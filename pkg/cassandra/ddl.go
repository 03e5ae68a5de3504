package cassandra

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DDLRepr renders a Go value as a CQL DDL literal, used to interpolate the
// replication map and durable_writes flag into CREATE KEYSPACE. Strings are
// single-quoted with embedded quotes escaped, maps render with their keys
// sorted for deterministic output.
//
// Example:
//
//	repr, _ := cassandra.DDLRepr(map[string]any{
//		"class":              "SimpleStrategy",
//		"replication_factor": 1,
//	})
//	// {'class': 'SimpleStrategy', 'replication_factor': 1}
func DDLRepr(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", `\'`) + "'", nil

	case bool:
		if t {
			return "true", nil
		}
		return "false", nil

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t), nil

	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			key, err := DDLRepr(k)
			if err != nil {
				return "", err
			}
			val, err := DDLRepr(t[k])
			if err != nil {
				return "", err
			}
			pairs = append(pairs, key+": "+val)
		}

		return "{" + strings.Join(pairs, ", ") + "}", nil

	default:
		return "", errors.Errorf("cannot convert %T to a DDL representation", v)
	}
}

package utils

import "strings"

// QuoteIdentifier double-quotes a CQL identifier, handling dotted
// keyspace.table names by quoting each part. Embedded double quotes are
// doubled per the CQL escaping rules.
//
// Examples:
//   - "events" -> `"events"`
//   - "app.events" -> `"app"."events"`
//   - `"events"` -> `"events"` (already quoted, not double-quoted)
//   - "" -> ""
func QuoteIdentifier(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.Split(name, ".")
	for i, part := range parts {
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			continue
		}
		parts[i] = `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
	}

	return strings.Join(parts, ".")
}

// QuoteQualifiedName quotes a name with an optional keyspace prefix.
//
// Examples:
//   - ("app", "events") -> `"app"."events"`
//   - ("", "events") -> `"events"`
func QuoteQualifiedName(keyspace, name string) string {
	if keyspace != "" {
		return QuoteIdentifier(keyspace) + "." + QuoteIdentifier(name)
	}
	return QuoteIdentifier(name)
}

// Package cql provides lexical splitting of CQL scripts into individually
// executable statements.
//
// Cassandra does not accept multiple DDL statements in a single request, so
// migration scripts containing several statements must be broken up before
// execution. The splitter is a makeshift scanner, not a parser: it only
// recognizes strings, comments and delimiters, which is enough to split
// statements without tripping over semicolons that appear inside literals
// or comments.
package cql

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// cqlLexer tokenizes a script just enough to find statement boundaries.
// Rules are tried in order, so comments and string literals win over the
// catch-all rune rule.
var cqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "LineComment", Pattern: `(--|//)[^\r\n]*`},
	{Name: "BlockComment", Pattern: `/\*[^*]*\*+([^/*][^*]*\*+)*/`},
	{Name: "String", Pattern: `'([^'\\]|\\.)*'`},
	{Name: "QuotedName", Pattern: `"([^"\\]|\\.)*"`},
	{Name: "DollarString", Pattern: `\$\$([^$\\]|\\.)*\$\$`},
	{Name: "Semicolon", Pattern: `;`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: `.`},
})

// Split divides a CQL script into its individual statements.
//
// Line comments are removed entirely. Block comments and whitespace runs
// collapse to a single space so adjacent tokens never merge. String
// literals (single-quoted, double-quoted, or $$-quoted) pass through
// verbatim, so semicolons inside them never terminate a statement. Each
// unquoted semicolon ends a statement; a trailing statement without a
// terminating semicolon is still emitted.
//
// Statements are returned in script order, trimmed of leading and trailing
// whitespace. An empty script, or one containing only comments and
// whitespace, yields no statements.
//
// Example:
//
//	stmts, err := cql.Split(`
//		CREATE TABLE hello (id uuid PRIMARY KEY);
//		CREATE TABLE world (id uuid PRIMARY KEY);
//	`)
//	// stmts contains two CREATE TABLE statements
func Split(script string) ([]string, error) {
	symbols := cqlLexer.Symbols()

	lex, err := cqlLexer.Lex("", strings.NewReader(script))
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan script")
	}

	var (
		statements []string
		buf        strings.Builder
	)

	flush := func() {
		if stmt := strings.TrimSpace(buf.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		buf.Reset()
	}

	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan script")
		}
		if tok.EOF() {
			break
		}

		switch tok.Type {
		case symbols["LineComment"]:
			// dropped entirely
		case symbols["Semicolon"]:
			flush()
		case symbols["BlockComment"], symbols["Whitespace"]:
			// collapse runs of whitespace and comments to one separator
			if s := buf.String(); !strings.HasSuffix(s, " ") {
				buf.WriteByte(' ')
			}
		default:
			buf.WriteString(tok.Value)
		}
	}

	flush()
	return statements, nil
}

// Package splitter turns the raw text of a migration script into the ordered
// statements that are executed, one at a time, against Oracle.
//
// Statements are terminated by a separator token (SQL*Plus style "/") that
// appears alone on its own line. Everything between two separators, trimmed of
// surrounding whitespace, is one statement; empty statements are dropped.
//
//	CREATE TABLE users (id NUMBER PRIMARY KEY)
//	/
//	BEGIN
//	  INSERT INTO users VALUES (1);
//	END;
//	/
//
// Splitting is deterministic. Journal checksums are computed over its output,
// so the same text must always produce the same statements.
package splitter

import (
	"strings"

	"github.com/pseudomuto/oraclekeeper/pkg/consts"
)

// Splitter splits scripts on a line-terminal separator token.
type Splitter struct {
	// Separator is the token that ends a statement when it is the only
	// non-whitespace content of a line. Defaults to consts.DefaultSeparator.
	Separator string
}

// New returns a Splitter for the given separator. An empty separator selects
// consts.DefaultSeparator.
func New(separator string) Splitter {
	return Splitter{Separator: strings.TrimSpace(separator)}
}

// Split splits text using consts.DefaultSeparator.
func Split(text string) []string {
	return Splitter{}.Split(text)
}

// Split returns the statements in text, in order.
//
// Example:
//
//	stmts := splitter.New("/").Split("INSERT INTO t VALUES (1);\n/\nBROKEN SQL;\n/\n")
//	// stmts == []string{"INSERT INTO t VALUES (1);", "BROKEN SQL;"}
func (s Splitter) Split(text string) []string {
	sep := s.separator()
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		statements []string
		current    strings.Builder
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == sep {
			flush()
			continue
		}

		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()

	return statements
}

// Join renders statements back into script form, each one followed by the
// separator on its own line. Splitting the result yields statements again.
func (s Splitter) Join(statements []string) string {
	sep := s.separator()

	var sb strings.Builder
	for _, stmt := range statements {
		sb.WriteString(stmt)
		sb.WriteByte('\n')
		sb.WriteString(sep)
		sb.WriteByte('\n')
	}

	return sb.String()
}

func (s Splitter) separator() string {
	if s.Separator == "" {
		return consts.DefaultSeparator
	}

	return s.Separator
}

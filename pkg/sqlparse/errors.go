package sqlparse

import (
	"fmt"
	"strings"
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Message string
	Line    int
	Column  int
	Near    string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d, column %d: %s (near %q)", e.Line, e.Column, e.Message, e.Near)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// UnsupportedError names a construct this converter doesn't model, raised
// with the construct's human name so the caller can report
// AnalysisError{Type: UnsupportedConstruct, Construct: ...}.
type UnsupportedError struct {
	Construct string
	Line      int
	Column    int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported construct: %s", e.Construct)
}

// lineCol converts a byte offset into the source text into a 1-based
// (line, column) pair, computed directly from the offset since pg_query_go
// hands us offsets, not a token stream.
func lineCol(src string, offset int) (line, col int) {
	if offset < 0 || offset > len(src) {
		return 1, 1
	}
	line = 1
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	col = offset - lastNewline
	return line, col
}

// near returns a short snippet of src starting at offset, for error
// messages, trimmed to a single line.
func near(src string, offset int) string {
	if offset < 0 || offset > len(src) {
		return ""
	}
	rest := src[offset:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSpace(rest)
	if len(rest) > 40 {
		rest = rest[:40]
	}
	return rest
}

// Package sqlcheck validates embedded SQL query strings against a static
// PostgreSQL DDL schema at build time and synthesizes a typed
// ResultDescriptor for each valid query, with no live database connection.
// Analyze is the single public boundary; everything beneath pkg/ is an
// implementation detail.
package sqlcheck

import (
	"fmt"

	"github.com/coreyja-studio/sql-check/pkg/analyzer"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/sqlparse"
)

// Field is one entry of a ResultDescriptor, the serializable boundary
// shape: SQLTypeTag is one of the canonical tag strings ("integer", "uuid",
// "array<text>", ...) that a downstream Type Mapper
// (pkg/sqltype.TypeMapper) consumes to emit a target-language type token.
type Field struct {
	Name       string
	SQLTypeTag string
	Nullable   bool
}

// ResultDescriptor is the ordered output shape of a successfully analyzed
// statement, plus any warnings accumulated even on success: duplicate
// output names, residual Unknown types.
type ResultDescriptor struct {
	Fields   []Field
	Warnings []string
}

// Analyze validates queryText against the schema described by schemaText
// and reports the query's output shape. declaredParamCount is the
// number of positional parameters ($1, $2, ...) the caller intends to
// bind; it must equal the highest placeholder index actually used in the
// query, with every index in between present, or AnalysisError{Type:
// ParameterArityMismatch} is returned.
func Analyze(schemaText, queryText string, declaredParamCount int) (*ResultDescriptor, error) {
	cat, err := catalog.Build(schemaText)
	if err != nil {
		return nil, &analyzer.AnalysisError{
			Type:    analyzer.ErrSchemaParse,
			Message: err.Error(),
		}
	}
	return analyzeAgainst(cat, queryText, declaredParamCount)
}

// AnalyzeFile is like Analyze but resolves and reads the schema file itself
// ($SQL_CHECK_SCHEMA, else schema.sql under root), memoizing the parsed
// Catalog across calls within one process.
func AnalyzeFile(root, queryText string, declaredParamCount int) (*ResultDescriptor, error) {
	path, err := ResolveSchemaPath(root)
	if err != nil {
		return nil, &analyzer.AnalysisError{Type: analyzer.ErrSchemaParse, Message: err.Error()}
	}
	cat, err := loadCatalog(path)
	if err != nil {
		return nil, &analyzer.AnalysisError{
			Type:    analyzer.ErrSchemaParse,
			Message: fmt.Sprintf("schema file %q: %v", path, err),
		}
	}
	return analyzeAgainst(cat, queryText, declaredParamCount)
}

func analyzeAgainst(cat *catalog.Catalog, queryText string, declaredParamCount int) (*ResultDescriptor, error) {
	stmt, err := sqlparse.ParseQuery(queryText)
	if err != nil {
		return nil, translateParseErr(err)
	}

	desc, err := analyzer.New(cat).Analyze(stmt, declaredParamCount)
	if err != nil {
		return nil, err
	}

	out := &ResultDescriptor{Warnings: desc.Warnings}
	for _, f := range desc.Fields {
		out.Fields = append(out.Fields, Field{
			Name:       f.Name,
			SQLTypeTag: f.SQLType.String(),
			Nullable:   f.Nullable,
		})
	}
	return out, nil
}

func translateParseErr(err error) error {
	switch e := err.(type) {
	case *sqlparse.UnsupportedError:
		return &analyzer.AnalysisError{
			Type:      analyzer.ErrUnsupportedConstruct,
			Construct: e.Construct,
			Line:      e.Line,
			Column:    e.Column,
			Message:   e.Error(),
		}
	case *sqlparse.ParseError:
		return &analyzer.AnalysisError{
			Type:    analyzer.ErrQueryParse,
			Line:    e.Line,
			Column:  e.Column,
			Message: e.Error(),
		}
	default:
		return &analyzer.AnalysisError{Type: analyzer.ErrQueryParse, Message: err.Error()}
	}
}

package analyzer

import (
	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/scope"
)

// analyzeDelete validates a DELETE statement's target table, WHERE, and
// RETURNING.
func (a *Analyzer) analyzeDelete(env *blockEnv, del *ast.DeleteStmt) (*ResultDescriptor, error) {
	ct, ok := env.catalog.Table(del.Table.Name)
	if !ok {
		return nil, unknownTable(del.Table.Name)
	}

	alias := del.Table.Alias
	if alias == "" {
		alias = del.Table.Name
	}
	s := scope.New(nil)
	s.AddTable(scope.TableFromCatalog(ct, alias, false))

	if del.Where != nil {
		if _, err := a.typer.Type(s, del.Where); err != nil {
			return nil, translateTyperErr(err)
		}
	}

	desc := &ResultDescriptor{}
	if len(del.Returning) > 0 {
		fields, err := a.projectColumns(env, s, del.Returning)
		if err != nil {
			return nil, err
		}
		desc.Fields = fields
	}
	desc.checkDuplicateNames()
	desc.checkUnknownResidues()
	return desc, nil
}

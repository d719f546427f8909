package analyzer

import (
	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/scope"
)

// analyzeUpdate validates an UPDATE statement's target table, optional
// FROM join scope, SET assignments, WHERE, and RETURNING.
func (a *Analyzer) analyzeUpdate(env *blockEnv, upd *ast.UpdateStmt) (*ResultDescriptor, error) {
	ct, ok := env.catalog.Table(upd.Table.Name)
	if !ok {
		return nil, unknownTable(upd.Table.Name)
	}

	alias := upd.Table.Alias
	if alias == "" {
		alias = upd.Table.Name
	}
	s := scope.New(nil)
	s.AddTable(scope.TableFromCatalog(ct, alias, false))

	if err := a.resolveFromClause(env, nil, s, upd.From); err != nil {
		return nil, err
	}

	for _, set := range upd.Set {
		col, ok := ct.Column(set.Column)
		if !ok {
			return nil, unknownColumn(upd.Table.Name, set.Column)
		}
		info, err := a.typer.Type(s, set.Value)
		if err != nil {
			return nil, translateTyperErr(err)
		}
		if !col.Type.IsUnknown() && !info.Type.IsUnknown() && !typesCompatible(col.Type, info.Type) {
			return nil, typeMismatch("column \"" + set.Column + "\" type mismatch in SET clause")
		}
	}

	if upd.Where != nil {
		if _, err := a.typer.Type(s, upd.Where); err != nil {
			return nil, translateTyperErr(err)
		}
	}

	desc := &ResultDescriptor{}
	if len(upd.Returning) > 0 {
		fields, err := a.projectColumns(env, s, upd.Returning)
		if err != nil {
			return nil, err
		}
		desc.Fields = fields
	}
	desc.checkDuplicateNames()
	desc.checkUnknownResidues()
	return desc, nil
}

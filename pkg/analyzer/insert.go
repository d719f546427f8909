package analyzer

import (
	"fmt"
	"strings"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/scope"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

// analyzeInsert validates an INSERT statement against its target table: the
// column list (explicit or implicit-all), VALUES rows or a SELECT source
// typed against that column list, and RETURNING.
func (a *Analyzer) analyzeInsert(env *blockEnv, ins *ast.InsertStmt) (*ResultDescriptor, error) {
	ct, ok := env.catalog.Table(ins.Table.Name)
	if !ok {
		return nil, unknownTable(ins.Table.Name)
	}

	targets, err := insertTargetColumns(ct, ins)
	if err != nil {
		return nil, err
	}

	if err := checkOmittedColumnsLegal(ct, targets); err != nil {
		return nil, err
	}

	// An UPDATE/DELETE-free scope containing just the target table, under
	// its own name (INSERT has no alias), for RETURNING and VALUES-via-
	// subquery expressions to resolve placeholders and column refs against.
	s := scope.New(nil)
	s.AddTable(scope.TableFromCatalog(ct, ins.Table.Name, false))

	for _, row := range ins.Values {
		if len(row) != len(targets) {
			return nil, invalidInsert(ins.Table.Name, "VALUES row arity does not match column list")
		}
		for i, e := range row {
			info, err := a.typer.Type(s, e)
			if err != nil {
				return nil, translateTyperErr(err)
			}
			target := targets[i]
			if !target.Type.IsUnknown() && !info.Type.IsUnknown() && !typesCompatible(target.Type, info.Type) {
				return nil, typeMismatch(fmt.Sprintf("column %q expects %s, got %s", target.Name, target.Type, info.Type))
			}
		}
	}

	if ins.Select != nil {
		_, fields, err := a.resolveSelectBlock(env, nil, ins.Select)
		if err != nil {
			return nil, err
		}
		if len(fields) != len(targets) {
			return nil, invalidInsert(ins.Table.Name, "INSERT ... SELECT column count does not match column list")
		}
	}

	desc := &ResultDescriptor{}
	if len(ins.Returning) > 0 {
		fields, err := a.projectColumns(env, s, ins.Returning)
		if err != nil {
			return nil, err
		}
		desc.Fields = fields
	}
	desc.checkDuplicateNames()
	desc.checkUnknownResidues()
	return desc, nil
}

// insertTargetColumns resolves the INSERT's column list against the
// target table: an explicit list is validated name-by-name, an omitted
// list defaults to every declared column in table order.
func insertTargetColumns(ct *catalog.Table, ins *ast.InsertStmt) ([]catalog.Column, error) {
	if ins.Columns == nil {
		return ct.Columns, nil
	}
	out := make([]catalog.Column, 0, len(ins.Columns))
	for _, name := range ins.Columns {
		col, ok := ct.Column(name)
		if !ok {
			return nil, unknownColumn(ins.Table.Name, name)
		}
		out = append(out, *col)
	}
	return out, nil
}

// checkOmittedColumnsLegal verifies every declared column not present in
// targets is either Nullable or HasDefault: otherwise the INSERT would
// fail at runtime with a NOT NULL violation with no way to supply a value,
// which this analyzer can catch statically.
func checkOmittedColumnsLegal(ct *catalog.Table, targets []catalog.Column) error {
	present := make(map[string]bool, len(targets))
	for _, c := range targets {
		present[strings.ToUpper(c.Name)] = true
	}
	for _, c := range ct.Columns {
		if present[strings.ToUpper(c.Name)] {
			continue
		}
		if !c.Nullable && !c.HasDefault {
			return invalidInsert(ct.Name, "column "+c.Name+" has no default and is not nullable, but is omitted from the column list")
		}
	}
	return nil
}

// typesCompatible reports whether a value typed b can be assigned into a
// column declared as a; full parameter/value type checking beyond this
// coarse compatibility is out of scope here, so this only rejects clearly
// incompatible pairs rather than enforcing exact equality — e.g. an
// integer literal into a numeric column is fine.
func typesCompatible(a, b sqltype.Value) bool {
	if a.IsArray() || b.IsArray() {
		return a.IsArray() && b.IsArray() && a.Elem == b.Elem
	}
	_, ok := sqltype.Common(a.Tag, b.Tag)
	return ok
}

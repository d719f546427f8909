package sqlparse

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/coreyja-studio/sql-check/pkg/ast"
)

func (c *converter) convertInsert(ins *pg_query.InsertStmt) (*ast.InsertStmt, error) {
	if ins.WithClause != nil {
		return nil, c.unsupported("WITH on INSERT", 0)
	}
	if ins.Relation == nil {
		return nil, c.errAt("INSERT missing target table", 0)
	}
	if ins.OnConflictClause != nil {
		return nil, c.unsupported("ON CONFLICT", 0)
	}

	table, err := c.convertRangeVar(ins.Relation)
	if err != nil {
		return nil, err
	}

	out := &ast.InsertStmt{Table: table}

	for _, colNode := range ins.Cols {
		rt, ok := colNode.Node.(*pg_query.Node_ResTarget)
		if !ok {
			continue
		}
		out.Columns = append(out.Columns, rt.ResTarget.Name)
	}

	switch {
	case ins.SelectStmt == nil:
		return nil, c.errAt("INSERT missing VALUES or SELECT", 0)
	default:
		sel, ok := ins.SelectStmt.Node.(*pg_query.Node_SelectStmt)
		if !ok {
			return nil, c.unsupported("INSERT source", 0)
		}
		if len(sel.SelectStmt.ValuesLists) > 0 {
			for _, row := range sel.SelectStmt.ValuesLists {
				list, ok := row.Node.(*pg_query.Node_List)
				if !ok {
					return nil, c.errAt("malformed VALUES row", 0)
				}
				var exprs []ast.Expr
				for _, v := range list.List.Items {
					e, err := c.convertExpr(v)
					if err != nil {
						return nil, err
					}
					exprs = append(exprs, e)
				}
				out.Values = append(out.Values, exprs)
			}
		} else {
			body, err := c.convertSelect(sel.SelectStmt)
			if err != nil {
				return nil, err
			}
			out.Select = body
		}
	}

	ret, err := c.convertReturning(ins.ReturningList)
	if err != nil {
		return nil, err
	}
	out.Returning = ret

	return out, nil
}

func (c *converter) convertUpdate(upd *pg_query.UpdateStmt) (*ast.UpdateStmt, error) {
	if upd.WithClause != nil {
		return nil, c.unsupported("WITH on UPDATE", 0)
	}
	if upd.Relation == nil {
		return nil, c.errAt("UPDATE missing target table", 0)
	}

	table, err := c.convertRangeVar(upd.Relation)
	if err != nil {
		return nil, err
	}

	out := &ast.UpdateStmt{Table: table}

	for _, t := range upd.TargetList {
		rt, ok := t.Node.(*pg_query.Node_ResTarget)
		if !ok {
			continue
		}
		val, err := c.convertExpr(rt.ResTarget.Val)
		if err != nil {
			return nil, err
		}
		out.Set = append(out.Set, ast.Assignment{Column: rt.ResTarget.Name, Value: val})
	}

	from, err := c.convertFromClause(upd.FromClause)
	if err != nil {
		return nil, err
	}
	out.From = from

	if upd.WhereClause != nil {
		w, err := c.convertExpr(upd.WhereClause)
		if err != nil {
			return nil, err
		}
		out.Where = w
	}

	ret, err := c.convertReturning(upd.ReturningList)
	if err != nil {
		return nil, err
	}
	out.Returning = ret

	return out, nil
}

func (c *converter) convertDelete(del *pg_query.DeleteStmt) (*ast.DeleteStmt, error) {
	if del.WithClause != nil {
		return nil, c.unsupported("WITH on DELETE", 0)
	}
	if del.Relation == nil {
		return nil, c.errAt("DELETE missing target table", 0)
	}
	if len(del.UsingClause) > 0 {
		return nil, c.unsupported("DELETE ... USING", 0)
	}

	table, err := c.convertRangeVar(del.Relation)
	if err != nil {
		return nil, err
	}

	out := &ast.DeleteStmt{Table: table}

	if del.WhereClause != nil {
		w, err := c.convertExpr(del.WhereClause)
		if err != nil {
			return nil, err
		}
		out.Where = w
	}

	ret, err := c.convertReturning(del.ReturningList)
	if err != nil {
		return nil, err
	}
	out.Returning = ret

	return out, nil
}

func (c *converter) convertReturning(nodes []*pg_query.Node) ([]ast.SelectColumn, error) {
	var cols []ast.SelectColumn
	for _, n := range nodes {
		rt, ok := n.Node.(*pg_query.Node_ResTarget)
		if !ok {
			continue
		}
		col, err := c.convertSelectColumn(rt.ResTarget)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// convertCreateTable is the Schema Catalog Builder's entry into the shared
// converter. Table- and column-level constraints beyond PRIMARY
// KEY/NOT NULL/DEFAULT are parsed to keep the grammar total but discarded
// for inference.
func (c *converter) convertCreateTable(ct *pg_query.CreateStmt) (*ast.CreateTableStmt, error) {
	if ct.Relation == nil {
		return nil, c.errAt("CREATE TABLE missing table name", 0)
	}

	out := &ast.CreateTableStmt{
		IfNotExists: ct.IfNotExists,
		Name:        ct.Relation.Relname,
	}

	for _, elt := range ct.TableElts {
		switch e := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			col, err := c.convertColumnDef(e.ColumnDef)
			if err != nil {
				return nil, err
			}
			out.Columns = append(out.Columns, *col)
		case *pg_query.Node_Constraint:
			tc, err := c.convertTableConstraint(e.Constraint)
			if err != nil {
				return nil, err
			}
			out.Constraints = append(out.Constraints, *tc)
		}
	}

	return out, nil
}

func (c *converter) convertColumnDef(cd *pg_query.ColumnDef) (*ast.ColumnDef, error) {
	typeName, err := typeNameString(cd.TypeName)
	if err != nil {
		return nil, err
	}
	out := &ast.ColumnDef{
		Name:     cd.Colname,
		TypeName: typeName,
		Pos:      c.posAt(int(cd.Location)),
	}
	for _, cn := range cd.Constraints {
		con, ok := cn.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}
		cc, err := c.convertColumnConstraint(con.Constraint)
		if err != nil {
			return nil, err
		}
		if cc != nil {
			out.Constraints = append(out.Constraints, *cc)
		}
	}
	return out, nil
}

func (c *converter) convertColumnConstraint(con *pg_query.Constraint) (*ast.ColumnConstraint, error) {
	switch con.Contype {
	case pg_query.ConstrType_CONSTR_NOTNULL:
		return &ast.ColumnConstraint{Kind: ast.ConstraintNotNull}, nil
	case pg_query.ConstrType_CONSTR_PRIMARY:
		return &ast.ColumnConstraint{Kind: ast.ConstraintPrimaryKey}, nil
	case pg_query.ConstrType_CONSTR_UNIQUE:
		return &ast.ColumnConstraint{Kind: ast.ConstraintUnique}, nil
	case pg_query.ConstrType_CONSTR_DEFAULT:
		var def ast.Expr
		if con.RawExpr != nil {
			e, err := c.convertExpr(con.RawExpr)
			if err != nil {
				return nil, err
			}
			def = e
		}
		return &ast.ColumnConstraint{Kind: ast.ConstraintDefault, Default: def}, nil
	case pg_query.ConstrType_CONSTR_CHECK:
		return &ast.ColumnConstraint{Kind: ast.ConstraintCheck}, nil
	case pg_query.ConstrType_CONSTR_FOREIGN:
		return &ast.ColumnConstraint{Kind: ast.ConstraintForeignKey}, nil
	default:
		// NULL (explicit nullable), IDENTITY, GENERATED, etc: not load-bearing
		// for analysis, tolerated and dropped.
		return nil, nil
	}
}

func (c *converter) convertTableConstraint(con *pg_query.Constraint) (*ast.TableConstraint, error) {
	var kind ast.ConstraintKind
	switch con.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		kind = ast.ConstraintPrimaryKey
	case pg_query.ConstrType_CONSTR_UNIQUE:
		kind = ast.ConstraintUnique
	case pg_query.ConstrType_CONSTR_FOREIGN:
		kind = ast.ConstraintForeignKey
	case pg_query.ConstrType_CONSTR_CHECK:
		kind = ast.ConstraintCheck
	default:
		kind = ast.ConstraintCheck
	}

	var cols []string
	for _, k := range con.Keys {
		if s, ok := k.Node.(*pg_query.Node_String_); ok {
			cols = append(cols, s.String_.Sval)
		}
	}
	return &ast.TableConstraint{Kind: kind, Columns: cols}, nil
}

// typeNameString renders a pg_query TypeName back into a DDL spelling
// string ("varchar(255)", "int4[]", ...) so sqltype.FromDDLName can parse
// it the same way regardless of whether it came through the grammar or a
// hand-written test fixture.
func typeNameString(tn *pg_query.TypeName) (string, error) {
	if tn == nil || len(tn.Names) == 0 {
		return "", &ParseError{Message: "column missing type"}
	}
	name := ""
	for _, n := range tn.Names {
		s, ok := n.Node.(*pg_query.Node_String_)
		if !ok {
			continue
		}
		// Skip the implicit "pg_catalog" schema qualifier pg_query_go adds
		// for built-in types.
		if s.String_.Sval == "pg_catalog" {
			continue
		}
		if name != "" {
			name += " "
		}
		name += s.String_.Sval
	}

	if len(tn.Typmods) > 0 {
		name += "("
		for i, m := range tn.Typmods {
			if i > 0 {
				name += ","
			}
			if ac, ok := m.Node.(*pg_query.Node_AConst); ok && ac.AConst.Val != nil {
				if iv, ok := ac.AConst.Val.(*pg_query.A_Const_Ival); ok {
					name += itoa(int(iv.Ival.Ival))
				}
			}
		}
		name += ")"
	}

	if len(tn.ArrayBounds) > 0 {
		name += "[]"
	}

	return name, nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

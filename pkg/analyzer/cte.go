package analyzer

import (
	"fmt"
	"strings"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/scope"
)

// cteBinding is a previously-analyzed CTE, keyed by name, visible to
// every block analyzed after it within the same WITH.
type cteBinding struct {
	columns []scope.Column
}

// bindCTEs resolves each CTE body in WITH order, recording its output
// columns in env.ctes before the next CTE (or the main statement) is
// analyzed, so later CTEs and the main query can reference earlier ones
// but not vice versa. An explicit column-alias list, e.g.
// "WITH active(uid, uname) AS (...)", renames the body's positional
// output columns without retyping them.
func (a *Analyzer) bindCTEs(env *blockEnv, ctes []ast.CTE) error {
	for _, cte := range ctes {
		_, fields, err := a.resolveSelectBlock(env, nil, cte.Body)
		if err != nil {
			return err
		}
		cols := fieldsToColumns(fields)
		if len(cte.Columns) > 0 {
			if len(cte.Columns) != len(cols) {
				return unsupported(fmt.Sprintf("CTE %q column alias list does not match its body's column count", cte.Name))
			}
			for i := range cols {
				cols[i].Name = cte.Columns[i]
			}
		}
		env.ctes[strings.ToUpper(cte.Name)] = cteBinding{columns: cols}
	}
	return nil
}

package analyzer

import "github.com/coreyja-studio/sql-check/pkg/sqltype"

// Field is one entry of a ResultDescriptor.
type Field struct {
	Name     string
	SQLType  sqltype.Value
	Nullable bool
}

// ResultDescriptor is the ordered output shape of a successfully analyzed
// statement, plus the warnings side-channel that accumulates even on
// success: duplicate output names, residual Unknown types.
type ResultDescriptor struct {
	Fields   []Field
	Warnings []string
}

func (d *ResultDescriptor) addWarning(w string) {
	d.Warnings = append(d.Warnings, w)
}

// checkDuplicateNames appends a warning for every output name that
// appears more than once; duplicates are permitted but must be flagged.
func (d *ResultDescriptor) checkDuplicateNames() {
	seen := make(map[string]int)
	for _, f := range d.Fields {
		seen[f.Name]++
	}
	for name, count := range seen {
		if count > 1 {
			d.addWarning("duplicate output name: " + name)
		}
	}
}

// checkUnknownResidues appends a warning for every field whose type could
// not be pinned to a concrete SqlType.
func (d *ResultDescriptor) checkUnknownResidues() {
	for _, f := range d.Fields {
		if f.SQLType.IsUnknown() {
			d.addWarning("unresolved type for output column: " + f.Name)
		}
	}
}

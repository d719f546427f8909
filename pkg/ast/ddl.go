package ast

// DDL node shapes used by the schema catalog builder to represent a
// parsed CREATE TABLE, targeting PostgreSQL type spellings.

// CreateTableStmt represents CREATE TABLE name (column_defs, constraints).
type CreateTableStmt struct {
	IfNotExists bool
	Name        string
	Columns     []ColumnDef
	Constraints []TableConstraint
	Pos         Pos
}

func (s *CreateTableStmt) node()     {}
func (s *CreateTableStmt) stmtNode() {}

// ColumnDef is one column_def in a CREATE TABLE body.
type ColumnDef struct {
	Name        string
	TypeName    string // raw DDL spelling, e.g. "varchar(255)", "numeric(10,2)", "int4[]"
	Constraints []ColumnConstraint
	Pos         Pos
}

// ConstraintKind tags a column- or table-level constraint.
type ConstraintKind int

const (
	ConstraintNotNull ConstraintKind = iota
	ConstraintPrimaryKey
	ConstraintUnique
	ConstraintDefault
	ConstraintCheck
	ConstraintForeignKey
)

// ColumnConstraint is an inline column-level constraint.
type ColumnConstraint struct {
	Kind    ConstraintKind
	Default Expr // set when Kind == ConstraintDefault
}

// TableConstraint is a table-level constraint clause. Parsed to keep the
// DDL grammar total but discarded for inference beyond the PRIMARY KEY
// column list, which is used to mark composite-PK columns NOT NULL.
type TableConstraint struct {
	Kind    ConstraintKind
	Columns []string
}

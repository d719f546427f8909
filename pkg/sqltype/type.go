// Package sqltype defines the closed set of SQL types the analyzer reasons
// about and the canonical tag strings used at the sqlcheck.Analyze boundary.
package sqltype

import (
	"strings"

	"github.com/woodsbury/decimal128"
)

// Type is a tagged variant over the SQL types the analyzer understands.
// Array and Unknown carry no further payload of their own; Array wraps an
// element Type via Value/OfArray below since Go enums can't carry a
// recursive payload as cheaply as a tagged union in other languages.
type Type int

const (
	Unknown Type = iota
	SmallInt
	Integer
	BigInt
	Real
	Double
	Numeric
	Text
	Bytea
	Boolean
	Timestamp
	Timestamptz
	Date
	Time
	Uuid
	Json
	Jsonb
	Inet
	Array
)

// ArrayType pairs the Array tag with its element type. A plain Type value
// of Array is never used on its own outside this pairing.
type ArrayType struct {
	Elem Type
}

// Value is the full representation of a typed expression's type: the tag
// plus, for Array, the element type.
type Value struct {
	Tag  Type
	Elem Type // only meaningful when Tag == Array
}

func Of(tag Type) Value              { return Value{Tag: tag} }
func OfArray(elem Type) Value        { return Value{Tag: Array, Elem: elem} }
func (v Value) IsArray() bool        { return v.Tag == Array }
func (v Value) IsUnknown() bool      { return v.Tag == Unknown }

func (v Value) String() string {
	if v.Tag == Array {
		return "array<" + v.Elem.String() + ">"
	}
	return v.Tag.String()
}

// String returns the canonical lower-case tag name used in ResultDescriptor
// fields and error messages.
func (t Type) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case SmallInt:
		return "smallint"
	case Integer:
		return "integer"
	case BigInt:
		return "bigint"
	case Real:
		return "real"
	case Double:
		return "double"
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Bytea:
		return "bytea"
	case Boolean:
		return "boolean"
	case Timestamp:
		return "timestamp"
	case Timestamptz:
		return "timestamptz"
	case Date:
		return "date"
	case Time:
		return "time"
	case Uuid:
		return "uuid"
	case Json:
		return "json"
	case Jsonb:
		return "jsonb"
	case Inet:
		return "inet"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// FromDDLName maps a PostgreSQL DDL type spelling (case-insensitive,
// synonyms collapsed; an optional "[]" array suffix and an optional
// precision in parentheses are stripped here) to a Value. Unrecognized
// spellings map to Unknown rather than erroring — callers decide whether an
// unrecognized column type is fatal.
func FromDDLName(name string) Value {
	n := strings.ToLower(strings.TrimSpace(name))
	array := false
	if strings.HasSuffix(n, "[]") {
		array = true
		n = strings.TrimSuffix(n, "[]")
		n = strings.TrimSpace(n)
	}
	// Strip any "(p[,s])" or "(n)" precision/length suffix.
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}

	var tag Type
	switch n {
	case "smallint", "int2":
		tag = SmallInt
	case "integer", "int4", "int":
		tag = Integer
	case "bigint", "int8":
		tag = BigInt
	case "real", "float4":
		tag = Real
	case "double precision", "float8", "double":
		tag = Double
	case "numeric", "decimal":
		tag = Numeric
	case "text":
		tag = Text
	case "varchar", "character varying", "char", "character":
		tag = Text
	case "bytea":
		tag = Bytea
	case "boolean", "bool":
		tag = Boolean
	case "timestamp", "timestamp without time zone":
		tag = Timestamp
	case "timestamptz", "timestamp with time zone":
		tag = Timestamptz
	case "date":
		tag = Date
	case "time", "time without time zone":
		tag = Time
	case "uuid":
		tag = Uuid
	case "json":
		tag = Json
	case "jsonb":
		tag = Jsonb
	case "inet":
		tag = Inet
	default:
		return Value{Tag: Unknown}
	}

	if array {
		return Value{Tag: Array, Elem: tag}
	}
	return Value{Tag: tag}
}

// IsWellFormedDecimal reports whether lexeme parses as a decimal number,
// used by the catalog builder to validate a numeric column's DEFAULT
// literal against a real decimal library rather than hand-rolled float
// parsing.
func IsWellFormedDecimal(lexeme string) bool {
	_, err := decimal128.Parse(lexeme)
	return err == nil
}

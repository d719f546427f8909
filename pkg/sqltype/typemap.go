package sqltype

import "fmt"

// TypeMapper translates a canonical sql_type tag into a target-language
// type token. It is an interface, generalizing a fixed lookup table into
// something a downstream codegen collaborator can plug its own
// target-language token set into without touching the analyzer.
type TypeMapper interface {
	// Map returns the target-language type token for v. Nullable fields are
	// the caller's concern to wrap (e.g. in an option/maybe type); Map
	// itself is not told nullability.
	Map(v Value) string
}

// DefaultTypeMapper names an example host language's tokens (i32, string,
// uuid, ...). It exists so the cmd/sqlcheck "types" subcommand has a
// mapper to run without depending on any specific codegen collaborator.
type DefaultTypeMapper struct{}

func (DefaultTypeMapper) Map(v Value) string {
	if v.Tag == Array {
		return "sequence<" + DefaultTypeMapper{}.Map(Value{Tag: v.Elem}) + ">"
	}
	switch v.Tag {
	case SmallInt:
		return "i16"
	case Integer:
		return "i32"
	case BigInt:
		return "i64"
	case Real:
		return "f32"
	case Double:
		return "f64"
	case Numeric:
		return "decimal"
	case Text:
		return "string"
	case Bytea:
		return "bytes"
	case Boolean:
		return "bool"
	case Timestamp:
		return "naive_datetime"
	case Timestamptz:
		return "datetime_utc"
	case Date:
		return "date"
	case Time:
		return "time"
	case Uuid:
		return "uuid"
	case Json, Jsonb:
		return "json_value"
	case Inet:
		return "ip_addr"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("unknown<%d>", v.Tag)
	}
}

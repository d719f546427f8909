package sqlcheck

import (
	"fmt"
	"os"
	"path/filepath"
)

// schemaEnvVar overrides the default schema file location.
const schemaEnvVar = "SQL_CHECK_SCHEMA"

// defaultSchemaFile is used when schemaEnvVar is unset.
const defaultSchemaFile = "schema.sql"

// ResolveSchemaPath returns the absolute path of the schema file to load:
// $SQL_CHECK_SCHEMA if set (resolved relative to root when not already
// absolute), else "schema.sql" under root.
func ResolveSchemaPath(root string) (string, error) {
	path := os.Getenv(schemaEnvVar)
	if path == "" {
		path = defaultSchemaFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving schema path %q: %w", path, err)
	}
	return abs, nil
}

// ReadSchemaFile reads the schema file at the resolved path, reporting a
// SchemaReadError naming the attempted path on failure.
func ReadSchemaFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &SchemaReadError{Path: path, Cause: err}
	}
	return string(data), nil
}

// SchemaReadError reports that the schema file at Path could not be read
// (missing, permission denied, ...), distinct from catalog.SchemaParseError
// which reports that a file that WAS read failed to parse.
type SchemaReadError struct {
	Path  string
	Cause error
}

func (e *SchemaReadError) Error() string {
	return fmt.Sprintf("could not read schema file %q: %v", e.Path, e.Cause)
}

func (e *SchemaReadError) Unwrap() error { return e.Cause }

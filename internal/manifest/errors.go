package manifest

import "fmt"

// SchemaError reports a manifest document that does not match the expected
// schema. Path points at the offending location in dotted form
// (for example "storage_devices.sd0.images.boot").
type SchemaError struct {
	// Path is the dotted JSON path to the offending element.
	Path string
	// Field is the field that is missing or malformed.
	Field string
	// Reason describes what is wrong with the field.
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("manifest schema: %s: %s", e.Path, e.Reason)
	}

	return fmt.Sprintf("manifest schema: %s: field %q %s", e.Path, e.Field, e.Reason)
}

// schemaErrorf builds a SchemaError for the given path and field.
func schemaErrorf(path, field, format string, args ...any) *SchemaError {
	return &SchemaError{
		Path:   path,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

package utils

import (
	"regexp"
	"strings"
)

// maxIdentifierLength is the Oracle 12.2+ limit for identifiers.
const maxIdentifierLength = 128

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_$#]*$`)

// IsIdentifier reports whether name is a nonquoted Oracle identifier: a letter
// followed by letters, digits, '_', '$' or '#', at most 128 characters long.
//
// Examples:
//   - "schemaversions" -> true
//   - "APP_OWNER" -> true
//   - "1table" -> false
//   - "my table" -> false
//   - "" -> false
func IsIdentifier(name string) bool {
	return len(name) <= maxIdentifierLength && identifierPattern.MatchString(name)
}

// CanonicalIdentifier returns the form Oracle stores a nonquoted identifier
// in, which is how it appears in the data dictionary views.
//
// Examples:
//   - "schemaversions" -> "SCHEMAVERSIONS"
//   - " App " -> "APP"
func CanonicalIdentifier(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// QualifiedName joins an optional schema and an object name.
//
// Examples:
//   - ("app", "schemaversions") -> "APP.SCHEMAVERSIONS"
//   - ("", "schemaversions") -> "SCHEMAVERSIONS"
func QualifiedName(schema, name string) string {
	if strings.TrimSpace(schema) == "" {
		return CanonicalIdentifier(name)
	}

	return CanonicalIdentifier(schema) + "." + CanonicalIdentifier(name)
}

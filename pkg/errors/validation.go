package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nameRegex matches identifiers accepted for concepts, roles and individuals.
// Names are atoms of the term syntax, so parentheses and whitespace are excluded.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_:#./+-][A-Za-z0-9_:#./+\-]*$`)

// reservedNames cannot be used as concept, role or individual names
// because the term parser reads them as operators.
var reservedNames = map[string]bool{
	"not": true, "and": true, "or": true, "some": true, "all": true,
	"at-most": true, "at-least": true, "one-of": true, "implies": true,
	"equivalent": true, "top": true, "bottom": true,
}

// ValidateName validates a concept, role or individual name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No parentheses (reserved for term syntax)
//   - No operator keywords
//   - Maximum length of 256 characters
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "%s name too long (max 256 characters)", kind)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid characters: %q", kind, name)
		}
	}

	if reservedNames[strings.ToLower(name)] {
		return New(ErrCodeInvalidName, "%s name %q is a reserved keyword", kind, name)
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid %s name: %q", kind, name)
	}

	return nil
}

// ValidatePath validates a knowledge base file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}

package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds type names and identifiers taken from user input.
const maxNameLength = 256

// ValidateTypeName validates a node or edge type name such as PERSON or
// PHONE_CALL, as used for the projected type and weight table keys.
//
// Validation rules:
//   - Name cannot be empty or blank
//   - Maximum length of 256 characters
//   - No control characters
//   - No separators used by the input tables (';', '=')
func ValidateTypeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidType, "type name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidType, "type name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidType, "type name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, ";=") {
		return New(ErrCodeInvalidType, "type name cannot contain ';' or '='")
	}

	return nil
}

// ValidatePath validates a local file path given on the command line or in a
// config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateRedisAddr checks a host:port address for the Redis cache backend.
func ValidateRedisAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "redis address cannot be empty")
	}
	i := strings.LastIndex(addr, ":")
	if i <= 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "redis address %q must have the form host:port", addr)
	}
	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "redis address %q has a non-numeric port", addr)
		}
	}
	return nil
}

package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxTemplateNameLength bounds template display names.
const MaxTemplateNameLength = 120

// ValidateTemplateName validates a user-supplied template name.
// Empty names are allowed (callers substitute "New Template").
func ValidateTemplateName(name string) error {
	if len(name) > MaxTemplateNameLength {
		return New(ErrCodeInvalidInput, "template name too long (max %d characters)", MaxTemplateNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "template name contains invalid control characters")
		}
	}
	return nil
}

// storageKeyRegex matches keys that are safe to use as a snapshot filename.
var storageKeyRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateStorageKey validates the key under which the local snapshot is
// stored. The key becomes a filename, so it must be a simple basename:
//   - not empty, at most 64 characters
//   - no path separators or traversal sequences
//   - letters, digits, '.', '_' and '-' only, not starting with '.'
func ValidateStorageKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "storage key cannot be empty")
	}
	if len(key) > 64 {
		return New(ErrCodeInvalidKey, "storage key too long (max 64 characters)")
	}
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return New(ErrCodeInvalidKey, "storage key cannot contain path components")
	}
	if !storageKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidKey, "invalid storage key: %q", key)
	}
	return nil
}

// ValidateURL validates a remote endpoint for the mirror backends.
// It only checks the scheme; the driver performs full parsing.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL must use one of the schemes %v", schemes)
}

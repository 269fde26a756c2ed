// Package security provides validation, sanitization, and limits for the taskloop package.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taskloop/taskloop/pkg/core"
)

// Security limits and configuration
const (
	// MaxJobTypeNameLength is the maximum length for job type names
	MaxJobTypeNameLength = 255

	// MaxJobPayloadSize is the maximum size in bytes for job payloads (1MB)
	MaxJobPayloadSize = 1 << 20

	// MaxConcurrency is the hard limit for worker concurrency
	MaxConcurrency = 1000

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MaxQueueNameLength is the maximum length for queue names
	MaxQueueNameLength = 255
)

// validJobTypeName matches alphanumeric, hyphens, and underscores
var validJobTypeName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-]*$`)

// validQueueName matches dot-delimited segments; each segment starts with a
// letter. The dots carry meaning: telemetry derives its tag hierarchy from
// the right-to-left suffixes of the queue name.
var validQueueName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-]*(\.[a-zA-Z][a-zA-Z0-9_\-]*)*$`)

// ValidateJobTypeName validates a job type name
func ValidateJobTypeName(name string) error {
	if name == "" {
		return core.ErrInvalidJobTypeName
	}
	if len(name) > MaxJobTypeNameLength {
		return core.ErrJobTypeNameTooLong
	}
	if !validJobTypeName.MatchString(name) {
		return core.ErrInvalidJobTypeName
	}
	return nil
}

// ValidateQueueName validates a dot-delimited queue name
func ValidateQueueName(name string) error {
	if name == "" {
		return core.ErrInvalidQueueName
	}
	if len(name) > MaxQueueNameLength {
		return core.ErrQueueNameTooLong
	}
	if !validQueueName.MatchString(name) {
		return core.ErrInvalidQueueName
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	// Truncate if too long
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

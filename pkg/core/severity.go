package core

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// =============================================================================
// Severity
// =============================================================================

// Severity is the enforcement level a generated configuration assigns to a rule.
type Severity int

// Severity levels understood by the target linter.
const (
	// SeverityWarn reports a violation without failing the lint run.
	SeverityWarn Severity = iota
	// SeverityError fails the lint run.
	SeverityError
)

// String returns the token the linter expects in its configuration.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// "warning" is accepted as an alias of "warn".
// Returns the severity and true if valid, or SeverityWarn and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, true
	case "warn", "warning":
		return SeverityWarn, true
	default:
		return SeverityWarn, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, ok := ParseSeverity(string(text))
	if !ok {
		return errors.Newf("unknown severity %q", string(text))
	}
	*s = sev
	return nil
}

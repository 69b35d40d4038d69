package core

import "encoding/json"

// =============================================================================
// ConfigEntry
// =============================================================================

// ConfigEntry is the value a generated configuration assigns to one rule:
// either a bare severity or a severity followed by the rule's default options.
type ConfigEntry struct {
	Severity Severity
	// Options is nil for a bare severity. A non-nil slice, even an empty one,
	// renders as [severity, ...options].
	Options []any
}

// Bare reports whether the entry renders as a lone severity token.
func (e ConfigEntry) Bare() bool {
	return e.Options == nil
}

// Values returns the entry in its rendered form: a string, or a slice whose
// first element is the severity token.
func (e ConfigEntry) Values() any {
	if e.Bare() {
		return e.Severity.String()
	}
	out := make([]any, 0, len(e.Options)+1)
	out = append(out, e.Severity.String())
	out = append(out, e.Options...)
	return out
}

// MarshalJSON renders the entry the way the linter configuration expects it.
func (e ConfigEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Values())
}

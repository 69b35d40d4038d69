// Package core defines the shared vocabulary of confgen.
//
// This package contains:
//   - Severity, the enforcement level written into generated configs
//   - Family, the framework major version a tier targets
//   - ConfigEntry, the per-rule value of a generated config
//
// The Golden Rule: pkg/core imports only stdlib plus the error and version
// helpers listed in arch_test.go. Every other package depends on core, not the reverse.
package core

// Package compile turns categorized rules into linter configuration modules.
//
// Resolve decides the configuration entry of one rule in one tier. Compile
// renders a whole category as a module in one of two shapes: the legacy
// shape (configs/<tier>.js) and the flat shape (configs/flat/<tier>.js).
// Both shapes share a single rendering of the rule mapping, so the mapping
// text is byte-identical across them.
//
// Everything here is pure. Compiling the same category twice yields the
// same bytes, and categories may be compiled concurrently.
package compile

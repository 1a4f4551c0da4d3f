// Package interp walks syntax trees produced by package shell and runs the
// commands they describe.
//
// Only simple commands, lists, if, while, until and for are executed.
// Pipelines, redirections, subshells, case, groups and function definitions
// parse fine but fail with an error matching ErrNotImplemented when run.
//
// Words are expanded with $name and ${name} references, then split on
// whitespace. Quoting doesn't suppress splitting.
package interp

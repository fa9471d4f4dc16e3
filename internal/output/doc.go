// Package output prints a dry-run plan: the two sides, the comparison mode,
// the tool that would run and the change list.
//
// Two formats are supported:
//   - text: human-readable terminal output (default)
//   - json: the full [Plan] as JSON
//
// Use [GetWriter] to obtain a [Writer] for a given format string, or
// [WritePlan] to print straight to an io.Writer.
package output

// Package errors defines the typed errors git-dirdiff reports and the exit
// codes they map to.
//
// Usage and revision-resolution errors are raised before any temporary state
// exists. Workspace and tool-invocation errors are fatal but still leave the
// caller's deferred cleanup to run. Per-path materialization problems are
// never errors; they are logged as warnings by the materializer.
package errors

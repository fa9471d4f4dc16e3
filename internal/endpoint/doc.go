// Package endpoint turns the command line's revision tokens and flags into
// the two sides of a directory diff.
//
// [Resolve] is pure apart from the [Checker] it consults to tell revisions
// from paths, and returns an immutable [Plan] that the rest of the pipeline
// receives by value.
package endpoint

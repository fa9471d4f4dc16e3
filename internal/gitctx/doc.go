// Package gitctx is the git side of a directory diff.
//
// A [Repo] answers every question the pipeline asks of version control:
// which revision a token names and how git abbreviates it, where two
// revisions last shared history, which paths differ between two sources,
// and what bytes a path holds in a commit or in the index. Object access goes
// through go-git; change listing and abbreviation shell out to git so that
// pathspec and index-refresh semantics match the user's git exactly.
//
// [MatchesAny] applies the configured exclude globs to listed paths.
package gitctx

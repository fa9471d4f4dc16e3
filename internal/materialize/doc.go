// Package materialize writes the changed-file subset of one comparison side
// into a destination directory.
//
// A [Source] yields the bytes a path holds on one side: a commit tree
// ([CommitSource]), the staging area ([IndexSource]) or the live working
// tree ([WorktreeSource]). [Materialize] walks the change list once, writes
// every path the source has, skips paths it does not, and records a per-path
// [Outcome]. Individual failures are logged and recorded, never returned;
// only an unusable destination root stops the pass.
package materialize

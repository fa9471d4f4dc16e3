// Package difftool starts the external program that compares the two
// materialized directories.
//
// A [Tool] is either a literal command supplied with --extcmd ([Custom]) or
// the user's configured git diff tool ([Lookup]), which follows git's own
// selection order: diff.guitool and merge.guitool when a GUI is requested,
// then diff.tool and merge.tool. A configured difftool.<name>.cmd runs
// through the shell with LOCAL, REMOTE, MERGED and BASE exported, the way git
// runs it.
package difftool

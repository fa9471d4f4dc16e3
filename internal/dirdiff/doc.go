// Package dirdiff runs one directory diff from parsed arguments to the
// external tool's exit status.
//
// [Run] resolves the two endpoints, lists the changed paths, stages each side
// into a private session directory, hands the pair to the diff tool and,
// when asked, copies edits from the working-tree side back. Every state that
// reaches the session directory is torn down before Run returns.
package dirdiff

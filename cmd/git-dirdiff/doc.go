// git-dirdiff opens a directory diff between two states of a git tree.
//
// It copies only the files that differ into two temporary directories and
// hands them to a diff tool. Installed on PATH it also runs as "git dirdiff".
//
// Usage:
//
//	git dirdiff                      # HEAD against the working tree
//	git dirdiff --cached             # HEAD against the index
//	git dirdiff v1.0 v1.1            # two commits
//	git dirdiff main...topic         # what topic changed since it forked
//	git dirdiff -x meld HEAD~3 -- docs
//	git dirdiff --copy-back          # keep edits made in the tool
package main

// Package cli wires together the Cobra command for the git-dirdiff binary.
//
// It defines the single root command, binds flags, reads configuration,
// installs the interrupt handler, runs the pipeline and maps its outcome to
// a git-style exit code: 0 for success or nothing to compare, 1 for usage
// errors, 128 for fatal errors, 130 after an interrupt, and otherwise the
// diff tool's own status.
package cli

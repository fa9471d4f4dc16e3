package output

import (
	"fmt"
	"io"
	"strings"
)

// TextWriter outputs a human-readable plan.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, plan *Plan) error {
	ew := &errWriter{w: w}

	ew.printf("git-dirdiff — %s mode\n", plan.Mode)
	ew.printf("Repository: %s\n", plan.Repo)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Left:  %-24s -> %s/\n", plan.Left.Spec, plan.Left.Dir)
	ew.printf("Right: %-24s -> %s/\n", plan.Right.Spec, plan.Right.Dir)
	if plan.Base != "" {
		ew.printf("Base:  %s\n", plan.Base)
	}
	ew.printf("Tool:  %s\n", plan.Tool)
	if plan.CopyBack {
		ew.println("Copy-back: enabled")
	}
	ew.println(strings.Repeat("─", 60))

	if len(plan.Paths) == 0 {
		ew.println("No changes.")
		return ew.err
	}
	ew.printf("%d changed path(s):\n", len(plan.Paths))
	for _, p := range plan.Paths {
		ew.printf("  %s\n", p)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

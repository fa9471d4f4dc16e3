package difftool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	apperrors "github.com/dshills/dirdiff/internal/errors"
)

// ConfigReader reads git configuration. *gitctx.Repo implements it.
type ConfigReader interface {
	ConfigGet(ctx context.Context, key string) (string, bool, error)
}

// exitInterrupted is reported when the tool dies from a signal.
const exitInterrupted = 130

// Tool is a resolved external comparison program.
type Tool struct {
	// Name is shown in diagnostics.
	Name string
	// Argv is executed directly with the two directories appended.
	Argv []string
	// Shell, when set, is run with "sh -c" instead of Argv.
	Shell string
}

// Options steer Lookup.
type Options struct {
	// Tool overrides git's configured tool name.
	Tool string
	GUI  bool
}

// known maps tool names git understands to the command that opens two
// directories side by side.
var known = map[string][]string{
	"meld":     {"meld"},
	"kdiff3":   {"kdiff3"},
	"bc":       {"bcompare"},
	"bc3":      {"bcompare"},
	"bc4":      {"bcompare"},
	"opendiff": {"opendiff"},
	"diffuse":  {"diffuse"},
	"kompare":  {"kompare"},
	"tkdiff":   {"tkdiff"},
	"xxdiff":   {"xxdiff"},
	"winmerge": {"WinMergeU", "-r", "-u"},
}

// Custom returns the tool for an --extcmd command line. The command is split
// on whitespace and is not interpreted by a shell.
func Custom(cmdline string) (Tool, error) {
	argv := strings.Fields(cmdline)
	if len(argv) == 0 {
		return Tool{}, apperrors.Usage("--extcmd requires a command")
	}
	return Tool{Name: argv[0], Argv: argv}, nil
}

// Lookup resolves the configured default diff tool. It fails with a usage
// error when none is configured.
func Lookup(ctx context.Context, cfg ConfigReader, opts Options) (Tool, error) {
	name := strings.TrimSpace(opts.Tool)
	if name == "" {
		keys := []string{"diff.tool", "merge.tool"}
		if opts.GUI {
			keys = append([]string{"diff.guitool", "merge.guitool"}, keys...)
		}
		for _, key := range keys {
			v, ok, err := cfg.ConfigGet(ctx, key)
			if err != nil {
				return Tool{}, err
			}
			if ok {
				name = v
				break
			}
		}
	}
	if name == "" {
		return Tool{}, apperrors.Usage("no diff tool configured; set diff.tool or use --extcmd")
	}

	cmd, ok, err := cfg.ConfigGet(ctx, "difftool."+name+".cmd")
	if err != nil {
		return Tool{}, err
	}
	if ok {
		return Tool{Name: name, Shell: cmd}, nil
	}

	argv := []string{name}
	if k, ok := known[name]; ok {
		argv = append([]string(nil), k...)
	}
	path, ok, err := cfg.ConfigGet(ctx, "difftool."+name+".path")
	if err != nil {
		return Tool{}, err
	}
	if ok {
		argv[0] = path
	}
	return Tool{Name: name, Argv: argv}, nil
}

// Invocation is one run of a tool.
type Invocation struct {
	Left  string
	Right string
	// Base is the merge-base root in merge-base mode. BASE is only exported
	// when it is set.
	Base string
	// Dir is the working directory for the tool.
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts the tool and waits for it. The tool's own exit status is
// returned as code; err is non-nil only when the tool could not be started.
func (t Tool) Run(ctx context.Context, inv Invocation) (code int, err error) {
	cmd := t.command(ctx, inv)
	cmd.Dir = inv.Dir
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Env = append(os.Environ(),
		"LOCAL="+inv.Left,
		"REMOTE="+inv.Right,
		"MERGED="+inv.Right,
	)
	if inv.Base != "" {
		cmd.Env = append(cmd.Env, "BASE="+inv.Base)
	}
	isolateGroup(cmd, cmd.Stdin)

	if err := cmd.Start(); err != nil {
		return apperrors.ExitFatal, apperrors.ToolInvocation(t.Name, err)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if code := exitErr.ExitCode(); code > 0 {
				return code, nil
			}
			// Killed by a signal, usually our own cancellation.
			return exitInterrupted, nil
		}
		return apperrors.ExitFatal, fmt.Errorf("waiting for %s: %w", t.Name, err)
	}
	return apperrors.ExitSuccess, nil
}

func (t Tool) command(ctx context.Context, inv Invocation) *exec.Cmd {
	if t.Shell != "" {
		if runtime.GOOS == "windows" {
			return exec.CommandContext(ctx, "sh", "-c", t.Shell)
		}
		return exec.CommandContext(ctx, "/bin/sh", "-c", t.Shell)
	}
	args := append(append([]string(nil), t.Argv[1:]...), inv.Left, inv.Right)
	return exec.CommandContext(ctx, t.Argv[0], args...)
}

func (t Tool) String() string {
	if t.Shell != "" {
		return t.Shell
	}
	return strings.Join(t.Argv, " ")
}

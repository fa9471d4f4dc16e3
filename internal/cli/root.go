package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/dirdiff/internal/config"
	"github.com/dshills/dirdiff/internal/dirdiff"
	apperrors "github.com/dshills/dirdiff/internal/errors"
	"github.com/dshills/dirdiff/internal/logging"
)

const version = "0.1.0"

// exitInterrupted is the status after SIGINT/SIGTERM, as a shell reports it.
const exitInterrupted = 130

// Command-line flags that are not configuration keys.
type flags struct {
	cached     bool
	copyBack   bool
	dryRun     bool
	verbose    bool
	configFile string
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	exitCode := apperrors.ExitSuccess
	var f flags

	cmd := &cobra.Command{
		Use:   "git-dirdiff [flags] [<rev> [<rev>] | <a>..<b> | <a>...<b>] [--] [<path>...]",
		Short: "Compare two states of a git tree with a directory diff tool",
		Long: `git-dirdiff copies the files that differ between two commits, a commit and
the index, or a commit and the working tree into a pair of temporary
directories and opens them in your diff tool. With --copy-back, edits made to
the working-tree side are written back when the tool exits.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runDirDiff(ctx, cmd, args, f, stdin, stdout, stderr)
			exitCode = code
			return err
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	fl := cmd.Flags()
	fl.BoolVar(&f.cached, "cached", false, "Compare against the index instead of the working tree")
	fl.BoolVar(&f.cached, "staged", false, "Synonym for --cached")
	fl.BoolVar(&f.copyBack, "copy-back", false, "Copy edits made to the working-tree side back when the tool exits")
	fl.StringP("extcmd", "x", "", "Run this command on the two directories instead of the configured diff tool")
	fl.StringP("tool", "t", "", "Diff tool to use (overrides diff.tool)")
	fl.BoolP("gui", "g", false, "Prefer diff.guitool when no tool is given")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print what would be compared without running the tool")
	fl.String("format", "text", "Dry-run output format (text, json)")
	fl.StringVar(&f.configFile, "config", "", "Config file path (json, yaml, toml, env)")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "Log debug diagnostics to stderr")

	if err := cmd.Execute(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return report(stderr, err, exitCode)
	}
	return exitCode
}

func runDirDiff(ctx context.Context, cmd *cobra.Command, args []string, f flags, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	cfg, err := config.Load(cmd.Flags(), f.configFile)
	if err != nil {
		return apperrors.ExitUsage, apperrors.Usage("%v", err)
	}

	level := cfg.Log.Level
	if f.verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(level)
	if err != nil {
		return apperrors.ExitUsage, apperrors.Usage("invalid log level %q: %v", level, err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on terminals

	return dirdiff.Run(ctx, dirdiff.Options{
		Args:     args,
		DashAt:   cmd.ArgsLenAtDash(),
		Cached:   f.cached,
		CopyBack: f.copyBack,
		ExtCmd:   cfg.ExtCmd,
		Tool:     cfg.Tool,
		GUI:      cfg.GUI,
		DryRun:   f.dryRun,
		Format:   cfg.Format,
		TmpDir:   cfg.TmpDir,
		Exclude:  cfg.Exclude,
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
		Logger:   logger.Logger,
	})
}

// report prints err the way git prints its own failures and returns the exit
// code for it. code is whatever the command recorded before failing.
func report(w io.Writer, err error, code int) int {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "interrupted")
		return exitInterrupted
	}

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		if code == apperrors.ExitSuccess {
			// cobra's own argument and flag errors.
			code = apperrors.ExitUsage
			appErr = apperrors.Usage("%v", err)
		}
	}
	if code == apperrors.ExitSuccess {
		code = apperrors.ExitCode(err)
	}

	if appErr != nil && appErr.Type == apperrors.ErrorTypeUsage {
		color.New(color.FgYellow, color.Bold).Fprint(w, "usage:")
		fmt.Fprintf(w, " %s\n", appErr.Error())
		return code
	}
	color.New(color.FgRed, color.Bold).Fprint(w, "fatal:")
	fmt.Fprintf(w, " %v\n", err)
	return code
}

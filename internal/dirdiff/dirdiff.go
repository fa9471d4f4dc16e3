package dirdiff

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/dshills/dirdiff/internal/difftool"
	"github.com/dshills/dirdiff/internal/endpoint"
	apperrors "github.com/dshills/dirdiff/internal/errors"
	"github.com/dshills/dirdiff/internal/gitctx"
	"github.com/dshills/dirdiff/internal/materialize"
	"github.com/dshills/dirdiff/internal/output"
	"github.com/dshills/dirdiff/internal/workspace"
)

// Options is everything a run needs. The zero value runs the default
// comparison (HEAD against the working tree) from the current directory.
type Options struct {
	// Dir is where the command was invoked; pathspecs are relative to it.
	Dir string
	// Args are the positional arguments, DashAt the index of the first one
	// after "--" or -1.
	Args   []string
	DashAt int

	Cached   bool
	CopyBack bool

	// ExtCmd bypasses tool lookup entirely when set.
	ExtCmd string
	Tool   string
	GUI    bool

	DryRun bool
	Format string

	TmpDir  string
	Exclude []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// side is an endpoint after its revision has been resolved.
type side struct {
	spec endpoint.Spec
	hash plumbing.Hash
	name string
}

// Run performs one comparison and returns the process exit status. err is
// set for usage and fatal errors; code is then apperrors.ExitCode(err).
func Run(ctx context.Context, opts Options) (code int, err error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Dir == "" {
		if opts.Dir, err = os.Getwd(); err != nil {
			return apperrors.ExitFatal, err
		}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	repo, err := gitctx.Open(ctx, opts.Dir)
	if err != nil {
		return apperrors.ExitFatal, err
	}

	plan, err := endpoint.Resolve(endpoint.Input{
		Args:     opts.Args,
		DashAt:   opts.DashAt,
		Cached:   opts.Cached,
		CopyBack: opts.CopyBack,
	}, repo)
	if err != nil {
		return apperrors.ExitCode(err), err
	}
	log.Debug("resolved plan",
		zap.Stringer("left", plan.Left),
		zap.Stringer("right", plan.Right),
		zap.Stringer("mode", plan.Mode),
		zap.Strings("paths", plan.Paths))

	// The tool is settled before anything is written so a missing
	// configuration never leaves temporary state behind.
	tool, err := selectTool(ctx, repo, opts)
	if err != nil {
		return apperrors.ExitCode(err), err
	}

	left, err := resolveSide(ctx, repo, plan.Left)
	if err != nil {
		return apperrors.ExitCode(err), err
	}
	right, err := resolveSide(ctx, repo, plan.Right)
	if err != nil {
		return apperrors.ExitCode(err), err
	}

	var base *side
	if plan.Mode == endpoint.MergeBaseRelative {
		h, err := repo.MergeBase(left.hash, right.hash)
		if err != nil {
			return apperrors.ExitFatal, fmt.Errorf("%s...%s: %w", plan.Left, plan.Right, err)
		}
		// The left tree shows what the right side changed since it forked.
		left = side{spec: endpoint.Rev(h.String()), hash: h, name: "cmt-" + repo.ShortName(ctx, h)}
		base = &left
	}

	paths, rejected, err := repo.ChangedPaths(ctx, listOptions(plan, left, right, opts.Exclude))
	if err != nil {
		return apperrors.ExitFatal, err
	}
	for _, p := range rejected {
		log.Warn("ignoring unsafe path", zap.String("path", p))
	}
	if len(paths) == 0 {
		log.Debug("no changes")
		return apperrors.ExitSuccess, nil
	}

	if opts.DryRun {
		return apperrors.ExitSuccess, output.WritePlan(opts.Stdout, describe(repo, plan, left, right, base, tool, paths), opts.Format)
	}

	session, err := workspace.New(opts.TmpDir, log)
	if err != nil {
		return apperrors.ExitFatal, apperrors.Workspace("cannot create temporary directory", err)
	}
	defer session.Close()

	leftSrc, err := source(repo, left)
	if err != nil {
		return apperrors.ExitFatal, err
	}
	rightSrc, err := source(repo, right)
	if err != nil {
		return apperrors.ExitFatal, err
	}
	lr, rr, err := materialize.Pair(ctx, paths,
		materialize.Job{Source: leftSrc, Dest: session.Dir(left.name)},
		materialize.Job{Source: rightSrc, Dest: session.Dir(right.name)},
		log)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.ExitFatal, ctx.Err()
		}
		return apperrors.ExitFatal, apperrors.Workspace("cannot populate temporary directory", err)
	}
	log.Debug("materialized",
		zap.Int("left", lr.Count(materialize.Written)),
		zap.Int("right", rr.Count(materialize.Written)),
		zap.Int("failed", len(lr.Failures())+len(rr.Failures())))

	inv := difftool.Invocation{
		Left:   left.name,
		Right:  right.name,
		Dir:    session.Root,
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	}
	if base != nil {
		inv.Base = base.name
	}
	log.Debug("running diff tool", zap.Stringer("tool", tool))
	code, err = tool.Run(ctx, inv)
	if err != nil {
		return code, err
	}

	if plan.CopyBack {
		report, err := workspace.CopyBack(session.Dir(right.name), repo.Root, log)
		if err != nil {
			return apperrors.ExitFatal, err
		}
		log.Debug("copy-back finished",
			zap.Int("copied", len(report.Copied)),
			zap.Int("unchanged", len(report.Unchanged)),
			zap.Int("skipped", len(report.Skipped)))
	}
	return code, nil
}

func selectTool(ctx context.Context, repo *gitctx.Repo, opts Options) (difftool.Tool, error) {
	if opts.ExtCmd != "" {
		return difftool.Custom(opts.ExtCmd)
	}
	return difftool.Lookup(ctx, repo, difftool.Options{Tool: opts.Tool, GUI: opts.GUI})
}

func resolveSide(ctx context.Context, repo *gitctx.Repo, spec endpoint.Spec) (side, error) {
	if spec.Kind != endpoint.Revision {
		return side{spec: spec, name: spec.DirName("")}, nil
	}
	h, err := repo.ResolveCommit(ctx, spec.Rev)
	if err != nil {
		return side{}, apperrors.RevisionResolution(spec.Rev, err)
	}
	return side{spec: spec, hash: h, name: spec.DirName(repo.ShortName(ctx, h))}, nil
}

func listOptions(plan endpoint.Plan, left, right side, exclude []string) gitctx.ListOptions {
	opts := gitctx.ListOptions{
		From:    left.hash.String(),
		Paths:   plan.Paths,
		Exclude: exclude,
	}
	switch right.spec.Kind {
	case endpoint.Revision:
		opts.To = right.hash.String()
	case endpoint.Staged:
		opts.Cached = true
	}
	return opts
}

func source(repo *gitctx.Repo, s side) (materialize.Source, error) {
	switch s.spec.Kind {
	case endpoint.Staged:
		idx, err := repo.Index()
		if err != nil {
			return nil, fmt.Errorf("reading index: %w", err)
		}
		return materialize.NewIndexSource(idx, repo), nil
	case endpoint.WorkingTree:
		return materialize.WorktreeSource{Root: repo.Root}, nil
	default:
		tree, err := repo.Tree(s.hash)
		if err != nil {
			return nil, err
		}
		return materialize.CommitSource{Tree: tree, Blobs: repo}, nil
	}
}

func describe(repo *gitctx.Repo, plan endpoint.Plan, left, right side, base *side, tool difftool.Tool, paths []string) *output.Plan {
	p := &output.Plan{
		Repo:     repo.Root,
		Left:     output.Side{Spec: left.spec.String(), Dir: left.name},
		Right:    output.Side{Spec: right.spec.String(), Dir: right.name},
		Mode:     plan.Mode.String(),
		Tool:     tool.String(),
		CopyBack: plan.CopyBack,
		Paths:    paths,
	}
	if base != nil {
		p.Left.Spec = plan.Left.String()
		p.Base = base.hash.String()
	}
	return p
}

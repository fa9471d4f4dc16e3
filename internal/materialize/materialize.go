package materialize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAbsent is returned by a Source for a path that does not exist on its
// side. It marks an add or delete boundary, not a failure.
var ErrAbsent = errors.New("path does not exist on this side")

// Source yields the content of a path on one side of the comparison.
type Source interface {
	// Open returns the content and permission bits for a slash-separated,
	// repository-relative path, or ErrAbsent.
	Open(path string) (io.ReadCloser, os.FileMode, error)
}

// Status is the result of materializing one path.
type Status int

const (
	Written Status = iota
	Absent
	Failed
)

func (s Status) String() string {
	switch s {
	case Written:
		return "written"
	case Absent:
		return "absent"
	default:
		return "failed"
	}
}

// Outcome records what happened to one path.
type Outcome struct {
	Path   string
	Status Status
	Err    error
}

// Report collects the outcomes for one side.
type Report struct {
	Root     string
	Outcomes []Outcome
}

// Count returns how many outcomes have status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that failed.
func (r Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			out = append(out, o)
		}
	}
	return out
}

// Materialize writes every path src holds into dest. The returned error is
// non-nil only when dest cannot be created or ctx is cancelled.
func Materialize(ctx context.Context, src Source, paths []string, dest string, log *zap.Logger) (Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	report := Report{Root: dest}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return report, fmt.Errorf("creating %s: %w", dest, err)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		o := materializeOne(src, p, dest)
		switch o.Status {
		case Failed:
			log.Warn("could not materialize path", zap.String("path", p), zap.String("root", dest), zap.Error(o.Err))
		case Absent:
			log.Debug("path absent on this side", zap.String("path", p), zap.String("root", dest))
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	return report, nil
}

func materializeOne(src Source, p, dest string) Outcome {
	rc, mode, err := src.Open(p)
	if errors.Is(err, ErrAbsent) {
		return Outcome{Path: p, Status: Absent}
	}
	if err != nil {
		return Outcome{Path: p, Status: Failed, Err: err}
	}
	defer rc.Close()

	if err := writeFile(filepath.Join(dest, filepath.FromSlash(p)), rc, mode); err != nil {
		return Outcome{Path: p, Status: Failed, Err: err}
	}
	return Outcome{Path: p, Status: Written}
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Job is one side's materialization.
type Job struct {
	Source Source
	Dest   string
}

// Pair materializes two sides concurrently. Their destinations must be
// disjoint.
func Pair(ctx context.Context, paths []string, left, right Job, log *zap.Logger) (Report, Report, error) {
	var lr, rr Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lr, err = Materialize(gctx, left.Source, paths, left.Dest, log)
		return err
	})
	g.Go(func() error {
		var err error
		rr, err = Materialize(gctx, right.Source, paths, right.Dest, log)
		return err
	})
	err := g.Wait()
	return lr, rr, err
}

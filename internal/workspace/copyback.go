package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dshills/dirdiff/internal/gitctx"
	"go.uber.org/zap"
)

// CopyReport lists what CopyBack did, by repository-relative path.
type CopyReport struct {
	Copied    []string
	Unchanged []string
	Skipped   []string
}

// CopyBack copies every regular file under from onto the same relative path
// under worktree. It only adds and overwrites; files missing from from are
// left alone in worktree. Byte-identical files are not rewritten so their
// timestamps survive. Per-file failures are logged and the walk continues.
func CopyBack(from, worktree string, log *zap.Logger) (CopyReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var report CopyReport

	err := filepath.WalkDir(from, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == from {
				return err
			}
			log.Warn("copy-back cannot read", zap.String("path", p), zap.Error(err))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(from, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !d.Type().IsRegular() || !gitctx.IsSafePath(rel) {
			report.Skipped = append(report.Skipped, rel)
			return nil
		}

		changed, err := copyOne(p, filepath.Join(worktree, filepath.FromSlash(rel)))
		switch {
		case err != nil:
			log.Warn("copy-back failed", zap.String("path", rel), zap.Error(err))
			report.Skipped = append(report.Skipped, rel)
		case changed:
			log.Debug("copied back", zap.String("path", rel))
			report.Copied = append(report.Copied, rel)
		default:
			report.Unchanged = append(report.Unchanged, rel)
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("copy-back from %s: %w", from, err)
	}
	return report, nil
}

// copyOne writes src over dst unless dst already holds the same bytes.
func copyOne(src, dst string) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}

	perm := os.FileMode(0o644)
	fi, err := os.Lstat(dst)
	switch {
	case err == nil && fi.Mode()&fs.ModeSymlink != 0:
		return false, fmt.Errorf("%s is a symlink in the working tree", dst)
	case err == nil && !fi.Mode().IsRegular():
		return false, fmt.Errorf("%s is not a regular file in the working tree", dst)
	case err == nil:
		perm = fi.Mode().Perm()
		existing, err := os.ReadFile(dst)
		if err == nil && bytes.Equal(existing, data) {
			return false, nil
		}
	case errors.Is(err, fs.ErrNotExist):
		if sfi, err := os.Stat(src); err == nil {
			perm = sfi.Mode().Perm()
		}
	default:
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return false, err
	}
	return true, nil
}

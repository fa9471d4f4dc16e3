package materialize

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// BlobOpener reads git blobs by hash. *gitctx.Repo implements it.
type BlobOpener interface {
	BlobReader(h plumbing.Hash) (io.ReadCloser, error)
}

// CommitSource reads paths from a commit's tree.
type CommitSource struct {
	Tree  *object.Tree
	Blobs BlobOpener
}

func (s CommitSource) Open(p string) (io.ReadCloser, os.FileMode, error) {
	entry, err := s.Tree.FindEntry(p)
	if errors.Is(err, object.ErrEntryNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, 0, ErrAbsent
	}
	if err != nil {
		return nil, 0, err
	}
	return openEntry(s.Blobs, entry.Mode, entry.Hash)
}

// Index stages: 0 is a merged entry, 2 is "ours" in a conflict.
const (
	stageMerged index.Stage = 0
	stageOurs   index.Stage = 2
)

// IndexSource reads paths from the staging area.
type IndexSource struct {
	entries map[string]*index.Entry
	blobs   BlobOpener
}

// NewIndexSource indexes idx by path once. A merged entry wins; a conflicted
// path falls back to "ours".
func NewIndexSource(idx *index.Index, blobs BlobOpener) *IndexSource {
	entries := make(map[string]*index.Entry, len(idx.Entries))
	for _, e := range idx.Entries {
		switch e.Stage {
		case stageMerged:
			entries[e.Name] = e
		case stageOurs:
			if _, ok := entries[e.Name]; !ok {
				entries[e.Name] = e
			}
		}
	}
	return &IndexSource{entries: entries, blobs: blobs}
}

func (s *IndexSource) Open(p string) (io.ReadCloser, os.FileMode, error) {
	e, ok := s.entries[p]
	if !ok || e.IntentToAdd {
		return nil, 0, ErrAbsent
	}
	return openEntry(s.blobs, e.Mode, e.Hash)
}

func openEntry(blobs BlobOpener, mode filemode.FileMode, h plumbing.Hash) (io.ReadCloser, os.FileMode, error) {
	switch mode {
	case filemode.Dir:
		return nil, 0, ErrAbsent
	case filemode.Submodule:
		return io.NopCloser(strings.NewReader(fmt.Sprintf("Subproject commit %s\n", h))), 0o644, nil
	}
	rc, err := blobs.BlobReader(h)
	if err != nil {
		return nil, 0, fmt.Errorf("reading blob %s: %w", h, err)
	}
	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}
	return rc, perm, nil
}

// WorktreeSource reads paths from the live working tree rooted at Root.
// Files that vanish between listing and copying are reported as absent.
type WorktreeSource struct {
	Root string
}

func (s WorktreeSource) Open(p string) (io.ReadCloser, os.FileMode, error) {
	full := filepath.Join(s.Root, filepath.FromSlash(p))
	fi, err := os.Lstat(full)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return nil, 0, ErrAbsent
	}
	if err != nil {
		return nil, 0, err
	}

	switch {
	case fi.Mode()&fs.ModeSymlink != 0:
		// Written as the link target, matching how git stores symlinks.
		target, err := os.Readlink(full)
		if err != nil {
			return nil, 0, err
		}
		return io.NopCloser(strings.NewReader(target)), 0o644, nil
	case fi.IsDir():
		// A submodule checkout or a path that became a directory.
		return nil, 0, ErrAbsent
	case !fi.Mode().IsRegular():
		return nil, 0, fmt.Errorf("%s is not a regular file", p)
	}

	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrAbsent
	}
	if err != nil {
		return nil, 0, err
	}
	perm := os.FileMode(0o644)
	if fi.Mode().Perm()&0o111 != 0 {
		perm = 0o755
	}
	return f, perm, nil
}

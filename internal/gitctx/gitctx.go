package gitctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is an opened repository plus the directory the user invoked us from.
type Repo struct {
	// Root is the top of the working tree.
	Root string
	// Dir is where pathspecs are evaluated.
	Dir string

	repo *git.Repository
}

// Open discovers the repository containing dir.
func Open(ctx context.Context, dir string) (*Repo, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("not inside a working tree")
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	return &Repo{Root: root, Dir: dir, repo: repo}, nil
}

// ResolveCommit resolves rev to a commit hash. go-git handles the common
// revision grammar; anything it rejects is retried with git rev-parse.
func (r *Repo) ResolveCommit(ctx context.Context, rev string) (plumbing.Hash, error) {
	if h, err := r.repo.ResolveRevision(plumbing.Revision(rev)); err == nil {
		if _, err := r.repo.CommitObject(*h); err == nil {
			return *h, nil
		}
	}

	out, err := gitOutput(ctx, r.Dir, "rev-parse", "--verify", "--quiet", "--end-of-options", rev+"^{commit}")
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("unknown revision %q", rev)
	}
	h := strings.TrimSpace(out)
	if !plumbing.IsHash(h) {
		return plumbing.ZeroHash, fmt.Errorf("unknown revision %q", rev)
	}
	return plumbing.NewHash(h), nil
}

// IsRevision reports whether tok names a commit.
func (r *Repo) IsRevision(tok string) bool {
	_, err := r.ResolveCommit(context.Background(), tok)
	return err == nil
}

// PathExists reports whether tok names a file or directory relative to Dir.
func (r *Repo) PathExists(tok string) bool {
	_, err := os.Lstat(filepath.Join(r.Dir, tok))
	return err == nil
}

// ShortName returns git's unambiguous abbreviation of h.
func (r *Repo) ShortName(ctx context.Context, h plumbing.Hash) string {
	out, err := gitOutput(ctx, r.Dir, "rev-parse", "--short", h.String())
	if short := strings.TrimSpace(out); err == nil && short != "" {
		return short
	}
	return h.String()[:7]
}

// MergeBase returns the best common ancestor of a and b.
func (r *Repo) MergeBase(a, b plumbing.Hash) (plumbing.Hash, error) {
	ca, err := r.repo.CommitObject(a)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("loading commit %s: %w", a, err)
	}
	cb, err := r.repo.CommitObject(b)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("loading commit %s: %w", b, err)
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("computing merge base: %w", err)
	}
	if len(bases) == 0 {
		return plumbing.ZeroHash, fmt.Errorf("%s and %s have no common ancestor", a, b)
	}
	return bases[0].Hash, nil
}

// Tree returns the root tree of commit h.
func (r *Repo) Tree(h plumbing.Hash) (*object.Tree, error) {
	c, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", h, err)
	}
	return c.Tree()
}

// Index reads the current staging area.
func (r *Repo) Index() (*index.Index, error) {
	return r.repo.Storer.Index()
}

// BlobReader opens the content of blob h.
func (r *Repo) BlobReader(h plumbing.Hash) (io.ReadCloser, error) {
	b, err := r.repo.BlobObject(h)
	if err != nil {
		return nil, err
	}
	return b.Reader()
}

// ListOptions selects the two sources whose differing paths are listed.
type ListOptions struct {
	// From is the left commit (or merge base).
	From string
	// To is the right commit. Empty means the index when Cached is set and
	// the working tree otherwise.
	To      string
	Cached  bool
	Paths   []string
	Exclude []string
}

// ChangedPaths lists repository-relative paths that differ between the two
// sources, in git's order. Renames are reported as a delete plus an add so
// both names reach the materializer. Paths that would escape a destination
// root are dropped and returned in rejected.
func (r *Repo) ChangedPaths(ctx context.Context, opts ListOptions) (paths, rejected []string, err error) {
	out, err := gitOutput(ctx, r.Dir, buildDiffArgs(opts)...)
	if err != nil {
		return nil, nil, fmt.Errorf("git diff: %w", err)
	}
	paths, rejected = parseNameList(out)
	if len(opts.Exclude) > 0 {
		paths = filterFileList(paths, opts.Exclude)
	}
	return paths, rejected, nil
}

// ConfigGet reads a git config value. ok is false when the key is unset.
func (r *Repo) ConfigGet(ctx context.Context, key string) (value string, ok bool, err error) {
	cmd := exec.CommandContext(ctx, "git", "config", "--get", key)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err == nil {
		v := strings.TrimSpace(string(out))
		return v, v != "", nil
	}
	// Exit code 1 indicates the key was not found.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return "", false, nil
	}
	return "", false, fmt.Errorf("git config --get %s: %w", key, err)
}

func buildDiffArgs(opts ListOptions) []string {
	args := []string{"diff", "--name-only", "-z", "--no-renames", "--no-relative", "--no-ext-diff"}
	if opts.Cached {
		args = append(args, "--cached")
	}
	if opts.From != "" {
		args = append(args, opts.From)
	}
	if opts.To != "" {
		args = append(args, opts.To)
	}
	args = append(args, "--")
	args = append(args, opts.Paths...)
	return args
}

func parseNameList(out string) (paths, rejected []string) {
	seen := make(map[string]bool)
	for _, p := range strings.Split(out, "\x00") {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if !IsSafePath(p) {
			rejected = append(rejected, p)
			continue
		}
		paths = append(paths, p)
	}
	return paths, rejected
}

// IsSafePath reports whether p is a clean, relative, slash-separated path
// with no parent-directory segments.
func IsSafePath(p string) bool {
	if p == "" || path.IsAbs(p) || strings.Contains(p, "\\") || filepath.IsAbs(p) {
		return false
	}
	if path.Clean(p) != p {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." || seg == "." || seg == ".git" {
			return false
		}
	}
	return true
}

func filterFileList(files []string, excludes []string) []string {
	var result []string
	for _, f := range files {
		if !MatchesAny(f, excludes) {
			result = append(result, f)
		}
	}
	return result
}

// MatchesAny returns true if the path matches any of the given doublestar
// patterns. A pattern without a slash also matches against the base name.
func MatchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(p)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

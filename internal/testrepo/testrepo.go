// Package testrepo builds throwaway git repositories for tests. File sets are
// written as txtar archives so fixtures read like a directory listing.
package testrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"
)

// Repo is a git working tree under t.TempDir().
type Repo struct {
	t   testing.TB
	Dir string
}

// New initializes an empty repository on branch main.
func New(t testing.TB) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	// macOS temp dirs are symlinked; git reports the resolved path.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	isolate(t)
	r := &Repo{t: t, Dir: dir}
	r.Git("init", "-q")
	r.Git("checkout", "-q", "-b", "main")
	r.Git("config", "core.autocrlf", "false")
	return r
}

// isolate points git at an empty global config so the developer's own
// diff.tool and friends cannot leak into tests. The settings are inherited by
// every git process the code under test starts.
func isolate(t testing.TB) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(home, ".gitconfig"))
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@test.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@test.com")
}

// Git runs a git command in the repository and returns its stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		r.t.Fatalf("git %v failed: %v\n%s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}

// Apply writes every file in the txtar archive into the working tree.
func (r *Repo) Apply(archive string) {
	r.t.Helper()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		r.WriteFile(f.Name, string(f.Data))
	}
}

// WriteFile writes one file, creating parents.
func (r *Repo) WriteFile(name, content string) {
	r.t.Helper()
	p := filepath.Join(r.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		r.t.Fatal(err)
	}
}

// ReadFile returns a working tree file's content.
func (r *Repo) ReadFile(name string) string {
	r.t.Helper()
	data, err := os.ReadFile(filepath.Join(r.Dir, filepath.FromSlash(name)))
	if err != nil {
		r.t.Fatal(err)
	}
	return string(data)
}

// Remove deletes a working tree file.
func (r *Repo) Remove(name string) {
	r.t.Helper()
	if err := os.Remove(filepath.Join(r.Dir, filepath.FromSlash(name))); err != nil {
		r.t.Fatal(err)
	}
}

// Commit stages everything and commits, returning the new HEAD hash.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	r.Git("add", "-A")
	r.Git("commit", "-q", "--allow-empty", "-m", msg)
	return r.Git("rev-parse", "HEAD")
}

// CommitArchive applies archive and commits it.
func (r *Repo) CommitArchive(msg, archive string) string {
	r.t.Helper()
	r.Apply(archive)
	return r.Commit(msg)
}

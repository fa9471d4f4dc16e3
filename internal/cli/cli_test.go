package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/dshills/dirdiff/internal/errors"
	"github.com/dshills/dirdiff/internal/testrepo"
)

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

// repoWithChange returns a repository, entered as the working directory,
// whose a.txt differs from HEAD.
func repoWithChange(t *testing.T) *testrepo.Repo {
	t.Helper()
	r := testrepo.New(t)
	r.CommitArchive("initial", "-- a.txt --\none\n")
	r.WriteFile("a.txt", "two\n")
	t.Chdir(r.Dir)
	t.Setenv("GIT_DIRDIFF_TMPDIR", t.TempDir())
	return r
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := execute(t, "--version")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stdout, "git-dirdiff version "+version) {
		t.Errorf("stdout = %q, want version line", stdout)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	code, _, stderr := execute(t, "--no-such-flag")
	if code != apperrors.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitUsage)
	}
	if !strings.HasPrefix(stderr, "usage:") {
		t.Errorf("stderr = %q, want usage: prefix", stderr)
	}
}

func TestRun_NotARepository(t *testing.T) {
	testrepo.New(t) // isolates git configuration
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	t.Chdir(dir)

	code, _, stderr := execute(t, "-x", "true")
	if code != apperrors.ExitFatal {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitFatal)
	}
	if !strings.HasPrefix(stderr, "fatal:") {
		t.Errorf("stderr = %q, want fatal: prefix", stderr)
	}
}

func TestRun_NothingToCompare(t *testing.T) {
	r := testrepo.New(t)
	r.CommitArchive("initial", "-- a.txt --\none\n")
	t.Chdir(r.Dir)

	code, stdout, stderr := execute(t, "-x", "false")
	if code != apperrors.ExitSuccess {
		t.Errorf("exit code = %d, want 0 (stderr %q)", code, stderr)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
}

func TestRun_ToolStatusIsExitCode(t *testing.T) {
	repoWithChange(t)

	code, _, stderr := execute(t, "-x", "false")
	if code != 1 {
		t.Errorf("exit code = %d, want the tool's 1", code)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want nothing", stderr)
	}
}

func TestRun_NoToolConfigured(t *testing.T) {
	repoWithChange(t)

	code, _, stderr := execute(t)
	if code != apperrors.ExitUsage {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitUsage)
	}
	if !strings.Contains(stderr, "no diff tool configured") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_DryRunUsesEnvironment(t *testing.T) {
	repoWithChange(t)
	t.Setenv("GIT_DIRDIFF_FORMAT", "json")
	t.Setenv("GIT_DIRDIFF_EXTCMD", "meld --newtab")

	code, stdout, stderr := execute(t, "--dry-run")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, stderr %q", code, stderr)
	}
	var plan struct {
		Tool  string   `json:"tool"`
		Paths []string `json:"paths"`
	}
	if err := json.Unmarshal([]byte(stdout), &plan); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if plan.Tool != "meld --newtab" {
		t.Errorf("tool = %q", plan.Tool)
	}
	if len(plan.Paths) != 1 || plan.Paths[0] != "a.txt" {
		t.Errorf("paths = %v, want [a.txt]", plan.Paths)
	}
}

func TestRun_FlagOverridesEnvironment(t *testing.T) {
	repoWithChange(t)
	t.Setenv("GIT_DIRDIFF_FORMAT", "json")

	code, stdout, _ := execute(t, "--dry-run", "--format", "text", "-x", "meld")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "1 changed path(s):") {
		t.Errorf("stdout = %q, want text report", stdout)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	repoWithChange(t)

	tests := []struct {
		name string
		args []string
	}{
		{"cached with range", []string{"--cached", "-x", "true", "HEAD..HEAD"}},
		{"staged with two revisions", []string{"--staged", "-x", "true", "HEAD", "HEAD"}},
		{"copy-back against a commit", []string{"--copy-back", "-x", "true", "HEAD", "HEAD"}},
		{"too many revisions", []string{"-x", "true", "HEAD", "HEAD", "HEAD", "--"}},
		{"bad format", []string{"--format", "xml", "-x", "true"}},
		{"empty extcmd", []string{"-x", " "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(t, tt.args...)
			if code != apperrors.ExitUsage {
				t.Errorf("exit code = %d, want %d (stderr %q)", code, apperrors.ExitUsage, stderr)
			}
			if !strings.HasPrefix(stderr, "usage:") {
				t.Errorf("stderr = %q, want usage: prefix", stderr)
			}
		})
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		wantCode int
		wantOut  string
	}{
		{"interrupt", fmt.Errorf("run: %w", context.Canceled), 0, exitInterrupted, "interrupted\n"},
		{"usage", apperrors.Usage("bad flag"), apperrors.ExitUsage, apperrors.ExitUsage, "usage: bad flag\n"},
		{"cobra error", errors.New("unknown flag: --x"), 0, apperrors.ExitUsage, "usage: unknown flag: --x\n"},
		{"revision", apperrors.RevisionResolution("nope", errors.New("unknown")), 0, apperrors.ExitFatal, "fatal: bad revision 'nope': unknown\n"},
		{"plain fatal", errors.New("not a git repository"), apperrors.ExitFatal, apperrors.ExitFatal, "fatal: not a git repository\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got := report(&buf, tt.err, tt.code)
			if got != tt.wantCode {
				t.Errorf("code = %d, want %d", got, tt.wantCode)
			}
			if buf.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}

//go:build unix

package difftool

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/term"
)

// isolateGroup starts the tool in its own process group so cancellation
// reaches everything it spawned. A tool reading from our terminal stays in
// the foreground group instead: it would stop on SIGTTIN otherwise, and the
// terminal already delivers ^C to all of its descendants.
func isolateGroup(cmd *exec.Cmd, stdin io.Reader) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}

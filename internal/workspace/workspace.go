package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prefix starts every session directory name.
const Prefix = "git-dirdiff-"

// Session is the private temporary tree of one run.
type Session struct {
	Root string

	log    *zap.Logger
	closed bool
}

// New creates a session directory under tmpdir (os.TempDir when empty).
func New(tmpdir string, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if tmpdir == "" {
		tmpdir = os.TempDir()
	}
	root := filepath.Join(tmpdir, Prefix+uuid.NewString())
	if err := os.Mkdir(root, 0o700); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	log.Debug("created session workspace", zap.String("root", root))
	return &Session{Root: root, log: log}, nil
}

// Dir returns the path of a side directory inside the session.
func (s *Session) Dir(name string) string {
	return filepath.Join(s.Root, name)
}

// Close removes the session tree. It is safe to call more than once. A
// removal failure is logged and returned but must not replace the run's own
// result.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	if err := os.RemoveAll(s.Root); err != nil {
		s.log.Warn("could not remove session workspace", zap.String("root", s.Root), zap.Error(err))
		return err
	}
	s.log.Debug("removed session workspace", zap.String("root", s.Root))
	return nil
}

// Package backup keeps timestamped copies of system files before zappy
// edits them.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/msalah0e/zappy/internal/runner"
)

const stampLayout = "20060102_150405"

// Store writes backups below Dir, one subdirectory per kind.
type Store struct {
	Runner runner.Runner
	Dir    string

	// Now is overridable for tests.
	Now func() time.Time
}

// New returns a store rooted at dir.
func New(r runner.Runner, dir string) *Store {
	return &Store{Runner: r, Dir: dir, Now: time.Now}
}

// Path returns the backup location for a file of the given kind:
// <dir>/<kind>/<kind>_<name>_<YYYYmmdd_HHMMSS>.bak, name optional.
func (s *Store) Path(kind, name string) string {
	stamp := s.now().Format(stampLayout)
	file := fmt.Sprintf("%s_%s.bak", kind, stamp)
	if name != "" {
		file = fmt.Sprintf("%s_%s_%s.bak", kind, name, stamp)
	}
	return filepath.Join(s.Dir, kind, file)
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Save copies src into the store and returns the backup path.
func (s *Store) Save(ctx context.Context, kind, name, src string) (string, error) {
	dst := s.Path(kind, name)
	if err := runner.MakeDir(ctx, s.Runner, filepath.Dir(dst)); err != nil {
		return "", fmt.Errorf("backup %s: %w", src, err)
	}
	if err := runner.CopyFile(ctx, s.Runner, src, dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", src, err)
	}
	return dst, nil
}

// Restore copies a backup over dst.
func (s *Store) Restore(ctx context.Context, backupPath, dst string) error {
	if err := runner.CopyFile(ctx, s.Runner, backupPath, dst); err != nil {
		return fmt.Errorf("restore %s: %w", dst, err)
	}
	return nil
}

// List returns the backups of one kind in name order, which is oldest
// first for a given file. A missing directory yields nothing.
func (s *Store) List(ctx context.Context, kind string) []string {
	dir := filepath.Join(s.Dir, kind)
	res := s.Runner.Run(ctx, runner.Sudo("ls", "-1", dir))
	if !res.OK() {
		return nil
	}
	var out []string
	for _, name := range strings.Fields(res.Stdout) {
		out = append(out, filepath.Join(dir, name))
	}
	return out
}

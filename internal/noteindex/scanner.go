package noteindex

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/starford/laguz/internal/vault"
)

// DirectoryScanner lists candidate note files under a root. Implementations
// must be synchronous: Scan blocks until the full listing is available.
// The index applies junk and extension filtering on top of whatever a
// scanner returns, so scanners may over-report.
type DirectoryScanner interface {
	Scan(root string) ([]string, error)
}

// WalkScanner is the in-process scanner: a recursive directory walk that
// prunes junk directories. It needs no external binaries, which also makes
// it the scanner of choice in tests.
type WalkScanner struct {
	FS     *vault.FS
	Junk   []string
	Logger *slog.Logger
}

// Scan returns the absolute path of every regular file under root,
// skipping pruned directories. Unreadable subdirectories are logged and
// skipped; a missing root yields an empty listing.
func (s *WalkScanner) Scan(string) ([]string, error) {
	var out []string
	err := s.FS.Walk(
		func(name string) bool { return matchesAny(name, s.Junk) },
		func(path string, walkErr error) {
			if s.Logger != nil {
				s.Logger.Warn("scan: skipping unreadable path",
					slog.String("path", path), slog.String("error", walkErr.Error()))
			}
		},
		func(abs string, _ fs.DirEntry) { out = append(out, abs) },
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToolScanner shells out to an external file lister (rg or fd) as a
// performance substitution for large roots. The call is still synchronous;
// callers block until the tool exits.
type ToolScanner struct {
	// Command is the listing program, e.g. "rg" or "fd". Arguments are
	// chosen per tool; anything else fails.
	Command string
}

// Scan runs the external lister rooted at root and returns absolute paths.
func (s *ToolScanner) Scan(root string) ([]string, error) {
	var cmd *exec.Cmd
	switch s.Command {
	case "rg":
		cmd = exec.Command("rg", "--files", "--no-messages", root)
	case "fd":
		cmd = exec.Command("fd", "--type", "f", "--absolute-path", ".", root)
	default:
		return nil, fmt.Errorf("noteindex: unsupported scan tool %q", s.Command)
	}

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("noteindex: %s: %w", s.Command, err)
	}

	var paths []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(root, line)
		}
		paths = append(paths, line)
	}
	return paths, sc.Err()
}

// matchesAny reports whether name matches any of the glob patterns.
// Invalid patterns never match.
func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

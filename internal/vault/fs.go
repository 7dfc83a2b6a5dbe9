// Package vault provides rooted, traversal-guarded file access for the
// notes directory. All content operations are whole-file and line-oriented;
// no streaming I/O is needed anywhere in the core.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS is a file-system handle rooted at the notes directory.
type FS struct {
	root string // absolute path to the notes root
}

// New creates an FS rooted at root. The directory does not have to exist
// yet; note roots are commonly created on first write.
func New(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	if info, statErr := os.Stat(abs); statErr == nil && !info.IsDir() {
		return nil, fmt.Errorf("vault: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute notes root.
func (f *FS) Root() string { return f.root }

// Abs resolves a root-relative path and rejects any result that escapes
// the root (directory traversal). Absolute inputs already under the root
// pass through unchanged.
func (f *FS) Abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if !filepath.IsAbs(cleaned) {
		cleaned = filepath.Join(f.root, cleaned)
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("vault: resolve path: %w", err)
	}
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("vault: path escapes notes root: %s", rel)
	}
	return abs, nil
}

// Rel converts an absolute path under the root to a root-relative one.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("vault: path outside notes root: %s", abs)
	}
	return rel, nil
}

// Exists reports whether path names an existing regular file.
func (f *FS) Exists(path string) bool {
	abs, err := f.Abs(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// ReadLines reads a file and splits it into lines. A trailing newline
// yields a final empty element, so Join on "\n" round-trips the content.
func (f *FS) ReadLines(path string) ([]string, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	return strings.Split(string(data), "\n"), nil
}

// WriteLines joins lines with "\n" and writes them atomically:
// tmp file in the same directory, fsync, rename.
func (f *FS) WriteLines(path string, lines []string) error {
	return f.writeFile(path, []byte(strings.Join(lines, "\n")))
}

func (f *FS) writeFile(path string, content []byte) error {
	abs, err := f.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".laguz-tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename temp: %w", err)
	}
	success = true
	return nil
}

// Backup writes a ".bak" sibling copy of the file's current content.
// An existing backup is overwritten.
func (f *FS) Backup(path string) error {
	abs, err := f.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("vault: backup read %s: %w", path, err)
	}
	return f.writeFile(abs+".bak", data)
}

// Rename moves a file within the notes root.
func (f *FS) Rename(oldPath, newPath string) error {
	absOld, err := f.Abs(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.Abs(newPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("vault: mkdir for rename: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	return nil
}

// Walk calls fn with the absolute path of every regular file under the
// root. skipDir decides whether a directory (by name) is descended into.
// A missing root is not an error; unreadable subdirectories are reported
// through onErr and skipped.
func (f *FS) Walk(skipDir func(name string) bool, onErr func(path string, err error), fn func(abs string, entry fs.DirEntry)) error {
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if onErr != nil {
				onErr(p, walkErr)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != f.root && skipDir != nil && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			fn(p, d)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vault: walk: %w", err)
	}
	return nil
}

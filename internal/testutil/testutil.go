// Package testutil provides shared test helpers for setting up note roots
// and search databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/laguz/internal/backlink"
	"github.com/starford/laguz/internal/noteindex"
	"github.com/starford/laguz/internal/rename"
	"github.com/starford/laguz/internal/resolve"
	"github.com/starford/laguz/internal/search"
	"github.com/starford/laguz/internal/vault"
)

// NoteExts is the extension set used by fixtures.
var NoteExts = []string{".md", ".org", ".txt"}

// World bundles the fully wired core components over a temporary notes root.
type World struct {
	Root     string
	FS       *vault.FS
	Index    *noteindex.Index
	Resolver *resolve.Resolver
	Engine   *backlink.Engine
	Renamer  *rename.Renamer
}

// NewWorld wires the core against a fresh temporary directory.
func NewWorld(t *testing.T) *World {
	t.Helper()
	root := t.TempDir()
	fs, err := vault.New(root)
	if err != nil {
		t.Fatal(err)
	}
	ix := noteindex.New(fs, noteindex.Options{
		Extensions: NoteExts,
		Junk:       []string{".git"},
		TTL:        time.Minute,
	})
	resolver := resolve.New(root, NoteExts, nil)
	engine := backlink.New(root, resolver, nil, nil)
	return &World{
		Root:     root,
		FS:       fs,
		Index:    ix,
		Resolver: resolver,
		Engine:   engine,
		Renamer:  rename.New(fs, ix, engine, NoteExts, nil),
	}
}

// Seed writes a note at rel under the root and returns its absolute path.
func (w *World) Seed(t *testing.T, rel, content string) string {
	t.Helper()
	abs := filepath.Join(w.Root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	w.Index.Invalidate()
	return abs
}

// TestDB creates a temporary search database that is cleaned up with the test.
func TestDB(t *testing.T) *search.DB {
	t.Helper()
	f, err := os.CreateTemp("", "laguz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := search.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

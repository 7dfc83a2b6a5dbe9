package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/laguz/internal/models"
)

var noteExts = []string{".md", ".org", ".txt"}

func record(root, rel string) models.NoteRecord {
	return models.NewNoteRecord(root, filepath.Join(root, rel), nil)
}

func TestResolve_ExactCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	index := []models.NoteRecord{record(root, "My-Note.md"), record(root, "Other.md")}
	r := New(root, noteExts, nil)

	for _, target := range []string{"My-Note", "my-note", "MY-NOTE"} {
		got := r.Resolve(target, index)
		if got == nil || got.Basename != "My-Note" {
			t.Errorf("Resolve(%q) = %v, want My-Note", target, got)
		}
	}
}

func TestResolve_NormalizationFallback(t *testing.T) {
	root := t.TempDir()
	index := []models.NoteRecord{record(root, "my-note.md")}
	r := New(root, noteExts, nil)

	// Stray whitespace and underscores normalize to hyphens (step 2).
	got := r.Resolve("  my_note  ", index)
	if got == nil || got.Basename != "my-note" {
		t.Fatalf("Resolve = %v, want my-note", got)
	}
	if got = r.Resolve("My Note", index); got == nil {
		t.Fatal("space-separated target should resolve via normalization")
	}
}

func TestResolve_CollapsedFallbackOrdering(t *testing.T) {
	root := t.TempDir()
	r := New(root, noteExts, nil)

	// "mynote" has no separators to normalize: it cannot match "my-note"
	// until the collapsed comparison (step 3).
	index := []models.NoteRecord{record(root, "my-note.md")}
	if got := r.Resolve("mynote", index); got == nil || got.Basename != "my-note" {
		t.Fatalf("Resolve(mynote) = %v, want my-note via collapsed fallback", got)
	}

	// When an exact match exists alongside a collapsed-only match, the
	// exact match must win: chain order is the tie-break policy.
	exact := record(root, "mynote.md")
	index = append([]models.NoteRecord{exact}, index...)
	if got := r.Resolve("mynote", index); got == nil || got.Basename != "mynote" {
		t.Fatalf("Resolve(mynote) = %v, want exact match mynote", got)
	}
}

func TestResolve_PathFallback(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "deep.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := New(root, noteExts, nil)

	// Not in the index at all: resolved by direct existence (step 4).
	got := r.Resolve("sub/deep", nil)
	if got == nil || got.Basename != "deep" || got.Directory != "sub" {
		t.Fatalf("Resolve(sub/deep) = %v", got)
	}

	// Extension-carrying path targets resolve by direct existence too.
	if got = r.Resolve("sub/deep.md", nil); got == nil {
		t.Fatal("Resolve(sub/deep.md) should succeed")
	}
}

func TestResolve_Unresolved(t *testing.T) {
	root := t.TempDir()
	r := New(root, noteExts, nil)
	index := []models.NoteRecord{record(root, "exists.md")}

	if got := r.Resolve("no-such-note", index); got != nil {
		t.Errorf("Resolve = %v, want nil", got)
	}
	if got := r.Resolve("", index); got != nil {
		t.Errorf("Resolve(empty) = %v, want nil", got)
	}
}

func TestResolve_PathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	r := New(root, noteExts, nil)
	if got := r.Resolve("../outside", nil); got != nil {
		t.Errorf("Resolve(../outside) = %v, want nil", got)
	}
	if got := r.Resolve("/etc/passwd", nil); got != nil {
		t.Errorf("Resolve(/etc/passwd) = %v, want nil", got)
	}
}

func TestResolve_ExtensionStrippedTarget(t *testing.T) {
	root := t.TempDir()
	index := []models.NoteRecord{record(root, "note.md")}
	r := New(root, noteExts, nil)

	// A markdown-style target naming the file directly matches by basename.
	if got := r.Resolve("note.md", index); got == nil || got.Basename != "note" {
		t.Fatalf("Resolve(note.md) = %v, want note", got)
	}
}

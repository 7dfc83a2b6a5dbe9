package noteservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/picker"
	"github.com/starford/laguz/internal/testutil"
)

func newService(t *testing.T, withSearch bool) (*Service, *testutil.World) {
	t.Helper()
	w := testutil.NewWorld(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := New(w.FS, w.Index, w.Resolver, w.Engine, w.Renamer, nil, logger)
	if withSearch {
		svc.db = testutil.TestDB(t)
	}
	return svc, w
}

func TestListNotes(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "A.md", "a\n")
	w.Seed(t, "sub/B.md", "b\n")

	notes := svc.ListNotes(context.Background())
	if len(notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(notes))
	}
	if notes[0].RelPath() != "A.md" || notes[1].RelPath() != "sub/B.md" {
		t.Errorf("unexpected order: %v, %v", notes[0].RelPath(), notes[1].RelPath())
	}
}

func TestLinks_ResolvedAndUnresolved(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "A.md", "see [[B]] and [[Missing Note]]\n")
	w.Seed(t, "B.md", "b\n")

	links, err := svc.Links(context.Background(), "A.md")
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %v, want 2", links)
	}
	if links[0].Resolved != "B.md" {
		t.Errorf("first link resolved = %q, want B.md", links[0].Resolved)
	}
	if links[1].Resolved != "" {
		t.Errorf("unresolved link should have empty resolved path, got %q", links[1].Resolved)
	}
}

func TestLinks_MissingNote(t *testing.T) {
	svc, _ := newService(t, false)
	_, err := svc.Links(context.Background(), "nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBacklinks_SourceIsRelative(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "sub/A.md", "see [[B]]\n")
	w.Seed(t, "B.md", "b\n")

	refs, err := svc.Backlinks(context.Background(), "B.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("refs = %v, want 1", refs)
	}
	if refs[0].Resolved != "sub/A.md" {
		t.Errorf("source = %q, want sub/A.md", refs[0].Resolved)
	}
	if refs[0].Type != string(models.LinkWiki) {
		t.Errorf("type = %q, want wiki", refs[0].Type)
	}
}

func TestPreviewRename_NoSideEffects(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "A.md", "see [[B]]\n")
	w.Seed(t, "B.md", "b\n")

	prev, err := svc.PreviewRename(context.Background(), "B.md", "C")
	if err != nil {
		t.Fatalf("PreviewRename: %v", err)
	}
	if prev.NewPath != "C.md" {
		t.Errorf("new path = %q, want C.md", prev.NewPath)
	}
	if len(prev.Changes) != 1 || prev.Changes[0].File != "A.md" {
		t.Fatalf("changes = %+v, want one change in A.md", prev.Changes)
	}
	if _, err := os.Stat(w.Root + "/B.md"); err != nil {
		t.Errorf("preview must not move the note: %v", err)
	}
	if got := string(mustRead(t, w.Root+"/A.md")); got != "see [[B]]\n" {
		t.Errorf("preview must not rewrite content, got %q", got)
	}
}

func TestRename_EndToEnd(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "A.md", "see [[B]]\n")
	w.Seed(t, "B.md", "b\n")

	out, err := svc.Rename(context.Background(), "B.md", "C", false)
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if out.Applied != 1 || out.Failed != 0 || out.Partial != "" {
		t.Fatalf("outcome = %+v", out)
	}
	if got := string(mustRead(t, w.Root+"/A.md")); got != "see [[C]]\n" {
		t.Errorf("A.md = %q, want rewrite to [[C]]", got)
	}
	if _, err := os.Stat(w.Root + "/C.md"); err != nil {
		t.Errorf("C.md should exist after rename: %v", err)
	}
}

func TestRename_DestinationExists(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "B.md", "b\n")
	w.Seed(t, "C.md", "c\n")

	_, err := svc.Rename(context.Background(), "B.md", "C", false)
	if !errors.Is(err, apperr.ErrDestinationExists) {
		t.Fatalf("err = %v, want ErrDestinationExists", err)
	}
}

func TestSearch_Disabled(t *testing.T) {
	svc, _ := newService(t, false)
	_, err := svc.Search(context.Background(), "anything", 10)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("err = %v, want disabled error", err)
	}
}

func TestSearch_SyncsBeforeQuery(t *testing.T) {
	svc, w := newService(t, true)
	w.Seed(t, "garden.md", "# Gardening\n\ntomato seedlings\n")

	results, err := svc.Search(context.Background(), "tomato", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "garden.md" {
		t.Fatalf("results = %+v, want garden.md", results)
	}

	if err := os.Remove(w.Root + "/garden.md"); err != nil {
		t.Fatal(err)
	}
	w.Index.Invalidate()
	results, err = svc.Search(context.Background(), "tomato", 10)
	if err != nil {
		t.Fatalf("Search after delete: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale results survived delete: %+v", results)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := newService(t, true)
	results, err := svc.Search(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("blank query should return nothing, got %+v", results)
	}
}

type scriptedPicker struct {
	choose string // display string to select, empty means cancel
}

func (p scriptedPicker) PickOne(_ string, items []picker.Item) (picker.Item, error) {
	for _, it := range items {
		if it.Display == p.choose {
			return it, nil
		}
	}
	return picker.Item{}, picker.ErrCancelled
}

func (p scriptedPicker) PickMany(_ string, items []picker.Item) ([]picker.Item, error) {
	one, err := p.PickOne("", items)
	if err != nil {
		return nil, err
	}
	return []picker.Item{one}, nil
}

func TestPickNote(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "A.md", "a\n")
	w.Seed(t, "sub/B.md", "b\n")

	rec, err := svc.PickNote(context.Background(), scriptedPicker{choose: "sub/B.md"})
	if err != nil {
		t.Fatalf("PickNote: %v", err)
	}
	if rec.RelPath() != "sub/B.md" {
		t.Errorf("picked = %q, want sub/B.md", rec.RelPath())
	}
}

func TestPickNote_Cancelled(t *testing.T) {
	svc, w := newService(t, false)
	w.Seed(t, "A.md", "a\n")

	_, err := svc.PickNote(context.Background(), scriptedPicker{})
	if !errors.Is(err, picker.ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

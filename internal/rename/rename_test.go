package rename

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/backlink"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteindex"
	"github.com/starford/laguz/internal/resolve"
	"github.com/starford/laguz/internal/vault"
)

var noteExts = []string{".md", ".org", ".txt"}

type fixture struct {
	root    string
	fs      *vault.FS
	renamer *Renamer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	fs, err := vault.New(root)
	if err != nil {
		t.Fatal(err)
	}
	ix := noteindex.New(fs, noteindex.Options{
		Extensions: noteExts,
		TTL:        time.Minute,
	})
	resolver := resolve.New(root, noteExts, nil)
	engine := backlink.New(root, resolver, nil, nil)
	return &fixture{
		root:    root,
		fs:      fs,
		renamer: New(fs, ix, engine, noteExts, nil),
	}
}

func (f *fixture) seed(t *testing.T, rel, content string) string {
	t.Helper()
	abs := filepath.Join(f.root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCompute_BasicWikiRewrite(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "intro\nsee [[B]] here\n")
	f.seed(t, "B.md", "content\n")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	changes := tx.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want exactly 1", changes)
	}
	c := changes[0]
	if c.Line != 2 || c.OldLine != "see [[B]] here" || c.NewLine != "see [[C]] here" {
		t.Errorf("change = %+v", c)
	}
	if c.Type != models.LinkWiki {
		t.Errorf("type = %s", c.Type)
	}
}

func TestCompute_Preconditions(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "B.md", "")
	f.seed(t, "C.md", "")

	if _, err := f.renamer.Compute("missing.md", "X"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing source: err = %v, want ErrNotFound", err)
	}
	if _, err := f.renamer.Compute("B.md", "C"); !errors.Is(err, apperr.ErrDestinationExists) {
		t.Errorf("existing destination: err = %v, want ErrDestinationExists", err)
	}
	if _, err := f.renamer.Compute("B.md", ""); err == nil {
		t.Error("empty new name should be rejected")
	}
	if _, err := f.renamer.Compute("B.md", "B"); err == nil {
		t.Error("unchanged name should be rejected")
	}
	// Nothing was touched.
	if !f.fs.Exists("B.md") || !f.fs.Exists("C.md") {
		t.Error("precondition failures must leave the filesystem unmodified")
	}
}

func TestCompute_ZkIDNeverRewritten(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "[[B]] and permanent [[zk:202501010000]]\n")
	f.seed(t, "B.md", "")
	// A note whose basename is the zk identifier: the id reference still
	// resolves to it, but must survive the rename untouched.
	f.seed(t, "202501010000.md", "")

	tx, err := f.renamer.Compute("202501010000.md", "renamed-zettel")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, c := range tx.Changes() {
		if c.Type == models.LinkZkID {
			t.Fatalf("zkId reference in changeset: %+v", c)
		}
	}
	if len(tx.Changes()) != 0 {
		t.Errorf("changes = %v, want none", tx.Changes())
	}
}

func TestCompute_AliasPreserved(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B|the other note]]\n")
	f.seed(t, "B.md", "")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	changes := tx.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes = %v", changes)
	}
	if changes[0].NewLine != "see [[C|the other note]]" {
		t.Errorf("new line = %q", changes[0].NewLine)
	}
}

func TestCompute_MarkdownAndOrgRewrites(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "[see](B.md)\n")
	f.seed(t, "notes.org", "compare [[file:B.md][the B note]]\n")
	f.seed(t, "B.md", "")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got := map[string]string{}
	for _, c := range tx.Changes() {
		got[filepath.Base(c.File)] = c.NewLine
	}
	if got["A.md"] != "[see](C.md)" {
		t.Errorf("markdown rewrite = %q", got["A.md"])
	}
	if got["notes.org"] != "compare [[file:C.md][the B note]]" {
		t.Errorf("org rewrite = %q", got["notes.org"])
	}
}

func TestCompute_ExtensionlessMarkdownLeavesProseAlone(t *testing.T) {
	f := newFixture(t)
	// The bare-basename spelling must only match inside the link's
	// parentheses, not in neighboring text sharing the prefix.
	f.seed(t, "A.md", "[see](B) (But this is prose)\n")
	f.seed(t, "B.md", "")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	changes := tx.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want exactly 1", changes)
	}
	if changes[0].NewLine != "[see](C) (But this is prose)" {
		t.Errorf("new line = %q, prose must be untouched", changes[0].NewLine)
	}
}

func TestCompute_ExtensionlessOrgLeavesLongerPathsAlone(t *testing.T) {
	f := newFixture(t)
	// "file:B" is a prefix of "file:Banana.org"; only the exact delimited
	// path may be rewritten.
	f.seed(t, "A.md", "[[file:B][b]] and [[file:Banana.org][fruit]]\n")
	f.seed(t, "B.md", "")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	changes := tx.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want exactly 1", changes)
	}
	if changes[0].NewLine != "[[file:C][b]] and [[file:Banana.org][fruit]]" {
		t.Errorf("new line = %q, other link must be untouched", changes[0].NewLine)
	}
}

func TestCompute_FuzzyMatchedTargetNotGuessed(t *testing.T) {
	f := newFixture(t)
	// Resolves to My-Note via the normalization fallback, but the literal
	// token differs from the basename, so no rewrite is synthesized.
	f.seed(t, "A.md", "[[my note]]\n")
	f.seed(t, "My-Note.md", "")

	tx, err := f.renamer.Compute("My-Note.md", "Renamed")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(tx.Changes()) != 0 {
		t.Errorf("changes = %v, want none for fuzzily-matched target", tx.Changes())
	}
}

func TestCompute_MultipleRefsOneLine(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "[[B]] then again [[B|alias]]\n")
	f.seed(t, "B.md", "")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	changes := tx.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes = %v, want one change per line", changes)
	}
	if changes[0].NewLine != "[[C]] then again [[C|alias]]" {
		t.Errorf("new line = %q", changes[0].NewLine)
	}
}

func TestApply_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\n")
	f.seed(t, "B.md", "content\n")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, err := tx.Preview(); err != nil {
		t.Fatalf("Preview: %v", err)
	}
	res, err := tx.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Applied != 1 || res.Failed != 0 || res.RenameErr != nil {
		t.Errorf("result = %+v", res)
	}
	if f.read(t, "A.md") != "see [[C]]\n" {
		t.Errorf("A.md = %q", f.read(t, "A.md"))
	}
	if f.fs.Exists("B.md") || !f.fs.Exists("C.md") {
		t.Error("note file was not renamed")
	}
	if f.read(t, "C.md") != "content\n" {
		t.Errorf("C.md = %q", f.read(t, "C.md"))
	}
	if tx.State() != StateApplied {
		t.Errorf("state = %s", tx.State())
	}
}

func TestApply_WithBackup(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\n")
	f.seed(t, "B.md", "")

	tx, _ := f.renamer.Compute("B.md", "C")
	_, _ = tx.Preview()
	if _, err := tx.Apply(true); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if f.read(t, "A.md.bak") != "see [[B]]\n" {
		t.Errorf("backup = %q, want pre-rewrite content", f.read(t, "A.md.bak"))
	}
	if f.read(t, "A.md") != "see [[C]]\n" {
		t.Errorf("A.md = %q", f.read(t, "A.md"))
	}
}

func TestApply_StaleLineSkipped(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\nand [[B]] again\n")
	f.seed(t, "B.md", "")

	tx, _ := f.renamer.Compute("B.md", "C")
	_, _ = tx.Preview()

	// Line 1 changes on disk between Compute and Apply.
	f.seed(t, "A.md", "edited externally\nand [[B]] again\n")

	res, err := tx.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Applied != 1 || res.Failed != 1 {
		t.Errorf("result = %+v, want 1 applied / 1 failed", res)
	}
	if f.read(t, "A.md") != "edited externally\nand [[C]] again\n" {
		t.Errorf("A.md = %q", f.read(t, "A.md"))
	}
}

func TestApply_SecondRunIsAllStale(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\n")
	f.seed(t, "B.md", "")

	tx, _ := f.renamer.Compute("B.md", "C")
	changes := tx.Changes()
	_, _ = tx.Preview()
	if _, err := tx.Apply(false); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	after := f.read(t, "A.md")

	// Replaying the same changeset: every line now holds newLine, not
	// oldLine, so the guard skips 100% and nothing changes.
	f.seed(t, "C2.md", "") // unrelated, keeps the index busy
	replay := &Transaction{
		r:       f.renamer,
		state:   StatePreviewed,
		oldPath: filepath.Join(f.root, "C.md"),
		newPath: filepath.Join(f.root, "D.md"),
		changes: changes,
	}
	res, err := replay.Apply(false)
	if err != nil {
		t.Fatalf("replay Apply: %v", err)
	}
	if res.Applied != 0 || res.Failed != len(changes) {
		t.Errorf("replay result = %+v, want all stale", res)
	}
	if f.read(t, "A.md") != after {
		t.Error("replay must not change file content")
	}
}

func TestApply_PartialApplyReported(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\n")
	f.seed(t, "B.md", "")

	tx, _ := f.renamer.Compute("B.md", "C")
	_, _ = tx.Preview()

	// Sabotage the final rename: the source disappears after Compute.
	if err := os.Remove(filepath.Join(f.root, "B.md")); err != nil {
		t.Fatal(err)
	}

	res, err := tx.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Applied != 1 {
		t.Errorf("applied = %d, want content rewrite to land", res.Applied)
	}
	if !errors.Is(res.RenameErr, apperr.ErrPartialApply) {
		t.Errorf("RenameErr = %v, want ErrPartialApply", res.RenameErr)
	}
	// Rewrites are not rolled back.
	if f.read(t, "A.md") != "see [[C]]\n" {
		t.Errorf("A.md = %q", f.read(t, "A.md"))
	}
}

func TestCancel_NoSideEffects(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\n")
	f.seed(t, "B.md", "")

	tx, _ := f.renamer.Compute("B.md", "C")
	_, _ = tx.Preview()
	tx.Cancel()

	if _, err := tx.Apply(false); err == nil {
		t.Error("Apply after Cancel should fail")
	}
	if f.read(t, "A.md") != "see [[B]]\n" || !f.fs.Exists("B.md") {
		t.Error("Cancel must leave the filesystem untouched")
	}
	if tx.State() != StateCancelled {
		t.Errorf("state = %s", tx.State())
	}
}

func TestApply_EmptyChangesetSkipsPreview(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "B.md", "nobody links here\n")

	tx, err := f.renamer.Compute("B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(tx.Changes()) != 0 {
		t.Fatalf("changes = %v", tx.Changes())
	}
	// Renaming an unlinked note is always safe without preview.
	res, err := tx.Apply(false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.RenameErr != nil || !f.fs.Exists("C.md") {
		t.Errorf("result = %+v", res)
	}
}

func TestApply_RequiresPreviewWhenChangesExist(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "see [[B]]\n")
	f.seed(t, "B.md", "")

	tx, _ := f.renamer.Compute("B.md", "C")
	if _, err := tx.Apply(false); err == nil {
		t.Error("Apply before Preview should fail when the changeset is non-empty")
	}
}

func TestCompute_SubdirectoryRelPathSpelling(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A.md", "[deep](sub/B.md)\n")
	f.seed(t, "sub/B.md", "")

	tx, err := f.renamer.Compute("sub/B.md", "C")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	changes := tx.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes = %v", changes)
	}
	if changes[0].NewLine != "[deep](sub/C.md)" {
		t.Errorf("new line = %q", changes[0].NewLine)
	}
}

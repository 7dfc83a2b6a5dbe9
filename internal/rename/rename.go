// Package rename implements the transactional note rename: compute a
// changeset of line-level link rewrites, preview it, and apply it per file
// with a stale-read guard and optional backups.
//
// A transaction moves Computed -> Previewed -> {Applied | Cancelled} and
// never leaves a terminal state; a new rename starts a fresh transaction.
package rename

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/backlink"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteindex"
	"github.com/starford/laguz/internal/notify"
	"github.com/starford/laguz/internal/vault"
)

// State is a transaction lifecycle stage.
type State int

// Transaction states.
const (
	StateComputed State = iota
	StatePreviewed
	StateApplied
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateComputed:
		return "computed"
	case StatePreviewed:
		return "previewed"
	case StateApplied:
		return "applied"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result reports an Apply outcome. Partial success is expected and must be
// visible: failures are counted, never raised as aborts.
type Result struct {
	Applied int    `json:"applied"` // line rewrites written
	Failed  int    `json:"failed"`  // stale or unwritable lines skipped
	NewPath string `json:"new_path"`
	// RenameErr is non-nil when content rewrites succeeded but the final
	// filesystem rename of the note itself failed (wraps ErrPartialApply).
	// Rewrites are not rolled back; the caller must intervene manually.
	RenameErr error `json:"-"`
}

// Renamer computes rename transactions against the current index.
type Renamer struct {
	fs       *vault.FS
	index    *noteindex.Index
	engine   *backlink.Engine
	exts     []string
	notifier notify.Notifier
}

// New creates a Renamer.
func New(fs *vault.FS, index *noteindex.Index, engine *backlink.Engine, exts []string, notifier notify.Notifier) *Renamer {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Renamer{fs: fs, index: index, engine: engine, exts: exts, notifier: notifier}
}

// Transaction is one in-flight rename.
type Transaction struct {
	r       *Renamer
	state   State
	oldPath string // absolute
	newPath string // absolute
	oldBase string
	newBase string
	oldRel  string
	changes []models.RenameChange
}

// Compute validates the rename and builds its changeset. Precondition
// failures (missing source, existing destination) abort before any writes;
// everything after Compute succeeds is recoverable.
func (r *Renamer) Compute(oldPath, newBasename string) (*Transaction, error) {
	newBasename = strings.TrimSpace(newBasename)
	if newBasename == "" {
		return nil, fmt.Errorf("rename: new name is empty: %w", apperr.ErrInvalidInput)
	}

	abs, err := r.fs.Abs(oldPath)
	if err != nil {
		return nil, err
	}
	if !r.fs.Exists(abs) {
		return nil, fmt.Errorf("rename: source %s: %w", oldPath, apperr.ErrNotFound)
	}

	ext := filepath.Ext(abs)
	oldBase := strings.TrimSuffix(filepath.Base(abs), ext)
	if newBasename == oldBase {
		return nil, fmt.Errorf("rename: new name equals current name %q: %w", oldBase, apperr.ErrInvalidInput)
	}

	newPath := filepath.Join(filepath.Dir(abs), newBasename+ext)
	if r.fs.Exists(newPath) {
		return nil, fmt.Errorf("rename: %s: %w", newBasename+ext, apperr.ErrDestinationExists)
	}

	oldRel, err := r.fs.Rel(abs)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		r:       r,
		state:   StateComputed,
		oldPath: abs,
		newPath: newPath,
		oldBase: oldBase,
		newBase: newBasename,
		oldRel:  oldRel,
	}
	tx.changes = tx.computeChanges(r.engine.BacklinksFor(abs, r.index.GetOrBuild()))
	return tx, nil
}

// Changes returns the computed changeset.
func (t *Transaction) Changes() []models.RenameChange { return t.changes }

// State returns the current lifecycle state.
func (t *Transaction) State() State { return t.state }

// NewPath returns the destination path of the note itself.
func (t *Transaction) NewPath() string { return t.newPath }

// Preview marks the changeset as presented to the user. It does not
// re-read disk state: the changeset is shown as computed, and staleness is
// caught per line at apply time.
func (t *Transaction) Preview() ([]models.RenameChange, error) {
	if t.state != StateComputed {
		return nil, fmt.Errorf("rename: preview in state %s", t.state)
	}
	t.state = StatePreviewed
	return t.changes, nil
}

// Cancel abandons the transaction with zero side effects.
func (t *Transaction) Cancel() {
	if t.state == StateComputed || t.state == StatePreviewed {
		t.state = StateCancelled
	}
}

// computeChanges turns backlink references into line rewrites. zkId
// references are never rewritten: link-by-identifier is permanent across
// renames. References whose substitution leaves the line unchanged are
// dropped. A line holding several qualifying references yields a single
// change rewriting all of them, so the stale-line guard sees each line
// once.
func (t *Transaction) computeChanges(refs []models.LinkReference) []models.RenameChange {
	type lineKey struct {
		file string
		line int
	}
	var changes []models.RenameChange
	byLine := make(map[lineKey]int) // -> index into changes

	for _, ref := range refs {
		if ref.Type == models.LinkZkID {
			continue
		}
		key := lineKey{ref.SourceFile, ref.Line}
		if i, ok := byLine[key]; ok {
			changes[i].NewLine = t.substitute(changes[i].NewLine, ref)
			continue
		}
		newLine := t.substitute(ref.RawLine, ref)
		if newLine == ref.RawLine {
			continue
		}
		byLine[key] = len(changes)
		changes = append(changes, models.RenameChange{
			File:    ref.SourceFile,
			Line:    ref.Line,
			OldLine: ref.RawLine,
			NewLine: newLine,
			Type:    ref.Type,
		})
	}
	return changes
}

// substitute applies the link-type-specific rewrite rule for one
// reference to line.
func (t *Transaction) substitute(line string, ref models.LinkReference) string {
	switch ref.Type {
	case models.LinkWiki, models.LinkWikiAlias:
		return t.substituteWiki(line, ref.Target)
	case models.LinkOrgFile:
		return t.substitutePath(line, "file:", "]")
	case models.LinkMarkdown:
		return t.substitutePath(line, "(", ")")
	}
	return line
}

// substituteWiki replaces the bracketed target token with the new
// basename, preserving any alias segment. Only targets that literally name
// the old basename (case-insensitively) are rewritten; targets that
// resolved through a fuzzier fallback are left alone rather than guessed
// at.
func (t *Transaction) substituteWiki(line, target string) string {
	if !strings.EqualFold(strings.TrimSpace(target), t.oldBase) {
		return line
	}
	line = strings.ReplaceAll(line, "[["+target+"]]", "[["+t.newBase+"]]")
	line = strings.ReplaceAll(line, "[["+target+"|", "[["+t.newBase+"|")
	return line
}

// substitutePath rewrites the path component of an org or markdown link,
// trying legacy spellings of the old name in turn and using whichever
// first appears between the syntax marker and its closing delimiter.
// Anchoring on both sides keeps a short spelling like the bare basename
// from touching longer paths or unrelated text that happens to share the
// prefix. Descriptions and link text are untouched.
func (t *Transaction) substitutePath(line, marker, closer string) string {
	for _, sp := range t.spellings() {
		old := marker + sp + closer
		if !strings.Contains(line, old) {
			continue
		}
		return strings.ReplaceAll(line, old, marker+t.renameSpelling(sp)+closer)
	}
	return line
}

// renameSpelling swaps the old basename for the new one inside the final
// path element of a spelling, leaving directory segments alone.
func (t *Transaction) renameSpelling(sp string) string {
	i := strings.LastIndex(sp, "/")
	dir, file := "", sp
	if i >= 0 {
		dir, file = sp[:i+1], sp[i+1:]
	}
	return dir + strings.Replace(file, t.oldBase, t.newBase, 1)
}

// spellings lists the path forms a reference to the old note may use:
// the basename with each supported extension, the full old relative path,
// and the bare basename. Longer, more specific forms come first.
func (t *Transaction) spellings() []string {
	rel := filepath.ToSlash(t.oldRel)
	out := []string{"./" + rel, rel}
	for _, ext := range t.exts() {
		out = append(out, t.oldBase+ext)
	}
	out = append(out, t.oldBase)
	return out
}

func (t *Transaction) exts() []string {
	if len(t.r.exts) > 0 {
		return t.r.exts
	}
	return []string{filepath.Ext(t.oldPath)}
}

// Apply rewrites the changeset and then renames the note file. Changes are
// grouped per file; each file is re-read, each line verified against its
// expected prior content, stale lines skipped and counted, and the file
// written back atomically. When backup is set, an unmodified ".bak" copy
// is written before the first rewrite of each file.
//
// Failures never abort the whole operation: the Result carries applied and
// failed counts, and a failed final rename is reported via RenameErr while
// completed rewrites stay in place.
func (t *Transaction) Apply(backup bool) (*Result, error) {
	switch t.state {
	case StatePreviewed:
	case StateComputed:
		// Renaming a note nobody links to needs no preview.
		if len(t.changes) > 0 {
			return nil, fmt.Errorf("rename: apply before preview")
		}
	default:
		return nil, fmt.Errorf("rename: apply in state %s", t.state)
	}

	res := &Result{NewPath: t.newPath}

	byFile := make(map[string][]models.RenameChange)
	var order []string
	for _, c := range t.changes {
		if _, ok := byFile[c.File]; !ok {
			order = append(order, c.File)
		}
		byFile[c.File] = append(byFile[c.File], c)
	}

	for _, file := range order {
		t.applyFile(file, byFile[file], backup, res)
	}

	if err := t.r.fs.Rename(t.oldPath, t.newPath); err != nil {
		// Content rewrites already on disk are not rolled back; surface
		// the inconsistency distinctly instead of hiding it.
		res.RenameErr = fmt.Errorf("%w: links rewritten but note still at %s: %v",
			apperr.ErrPartialApply, t.oldPath, err)
		t.r.notifier.Notify(notify.Error, res.RenameErr.Error())
	}

	t.r.index.Invalidate()
	t.state = StateApplied

	t.r.notifier.Notify(notify.Info,
		fmt.Sprintf("rename: %d line(s) rewritten, %d skipped", res.Applied, res.Failed))
	return res, nil
}

// applyFile rewrites one file's changes under the stale-line guard.
func (t *Transaction) applyFile(file string, changes []models.RenameChange, backup bool, res *Result) {
	lines, err := t.r.fs.ReadLines(file)
	if err != nil {
		res.Failed += len(changes)
		t.r.notifier.Notify(notify.Warn, fmt.Sprintf("rename: cannot read %s: %v", file, err))
		return
	}

	if backup {
		if err := t.r.fs.Backup(file); err != nil {
			res.Failed += len(changes)
			t.r.notifier.Notify(notify.Warn, fmt.Sprintf("rename: backup of %s failed: %v", file, err))
			return
		}
	}

	fileApplied := 0
	for _, c := range changes {
		idx := c.Line - 1
		if idx < 0 || idx >= len(lines) || lines[idx] != c.OldLine {
			// Stale read: this line changed since Compute. Skip it alone.
			res.Failed++
			continue
		}
		lines[idx] = c.NewLine
		fileApplied++
	}

	if fileApplied == 0 {
		return
	}
	if err := t.r.fs.WriteLines(file, lines); err != nil {
		// The write failed wholesale: no rewrite landed for this file.
		res.Failed += fileApplied
		t.r.notifier.Notify(notify.Warn, fmt.Sprintf("rename: write %s failed: %v", file, err))
		return
	}
	res.Applied += fileApplied
}

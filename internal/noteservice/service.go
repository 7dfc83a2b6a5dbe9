// Package noteservice coordinates the note index, link resolution, backlinks,
// renames, and full-text search behind one interface shared by the HTTP API,
// the MCP server, and the CLI commands.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/backlink"
	"github.com/starford/laguz/internal/extract"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/noteindex"
	"github.com/starford/laguz/internal/picker"
	"github.com/starford/laguz/internal/rename"
	"github.com/starford/laguz/internal/resolve"
	"github.com/starford/laguz/internal/search"
	"github.com/starford/laguz/internal/vault"
)

// LinkDetail is an outgoing link from a note, with its resolution outcome.
type LinkDetail struct {
	Line     int    `json:"line"`
	Type     string `json:"type"`
	Target   string `json:"target"`
	Resolved string `json:"resolved,omitempty"` // relative path, empty when unresolved
}

// RenamePreview lists the line rewrites a rename would make.
type RenamePreview struct {
	OldPath string                `json:"old_path"`
	NewPath string                `json:"new_path"`
	Changes []models.RenameChange `json:"changes"`
}

// RenameOutcome reports an applied rename.
type RenameOutcome struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Applied int    `json:"applied"`
	Failed  int    `json:"failed"`
	// Partial is set when backlink rewrites were written but the note file
	// itself could not be moved.
	Partial string `json:"partial,omitempty"`
}

// Service coordinates the vault, index, and link engines.
type Service struct {
	fs       *vault.FS
	index    *noteindex.Index
	resolver *resolve.Resolver
	engine   *backlink.Engine
	renamer  *rename.Renamer
	db       *search.DB // nil when full-text search is disabled
	logger   *slog.Logger
}

// New creates a note service. db may be nil to disable full-text search.
func New(fs *vault.FS, index *noteindex.Index, resolver *resolve.Resolver,
	engine *backlink.Engine, renamer *rename.Renamer, db *search.DB, logger *slog.Logger) *Service {
	return &Service{
		fs:       fs,
		index:    index,
		resolver: resolver,
		engine:   engine,
		renamer:  renamer,
		db:       db,
		logger:   logger,
	}
}

// Index exposes the underlying note index.
func (s *Service) Index() *noteindex.Index { return s.index }

// Renamer exposes the underlying renamer for interactive callers that hold
// a transaction across preview and apply.
func (s *Service) Renamer() *rename.Renamer { return s.renamer }

// ListNotes returns the current index contents, rebuilt if stale.
func (s *Service) ListNotes(_ context.Context) []models.NoteRecord {
	return s.index.GetOrBuild()
}

// Links extracts the outgoing links of one note and resolves each target
// against the index. Unresolved links are kept with an empty Resolved path.
func (s *Service) Links(_ context.Context, path string) ([]LinkDetail, error) {
	abs, err := s.fs.Abs(path)
	if err != nil {
		return nil, err
	}
	lines, err := s.fs.ReadLines(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	index := s.index.GetOrBuild()
	refs := extract.Extract(abs, lines)
	out := make([]LinkDetail, 0, len(refs))
	for _, ref := range refs {
		d := LinkDetail{Line: ref.Line, Type: string(ref.Type), Target: ref.Target}
		if rec := s.resolver.Resolve(ref.Target, index); rec != nil {
			d.Resolved = rec.RelPath()
		}
		out = append(out, d)
	}
	return out, nil
}

// Backlinks returns every link reference in the vault that resolves to the
// given note, with source paths relative to the notes root.
func (s *Service) Backlinks(_ context.Context, path string) ([]LinkDetail, error) {
	abs, err := s.fs.Abs(path)
	if err != nil {
		return nil, err
	}
	if !s.fs.Exists(abs) {
		return nil, apperr.ErrNotFound
	}
	refs := s.engine.BacklinksFor(abs, s.index.GetOrBuild())
	out := make([]LinkDetail, 0, len(refs))
	for _, ref := range refs {
		src := ref.SourceFile
		if rel, err := s.fs.Rel(src); err == nil {
			src = rel
		}
		out = append(out, LinkDetail{
			Line:     ref.Line,
			Type:     string(ref.Type),
			Target:   ref.Target,
			Resolved: src,
		})
	}
	return out, nil
}

// PreviewRename computes the rename transaction and returns its change list
// without touching the filesystem.
func (s *Service) PreviewRename(_ context.Context, path, newBasename string) (*RenamePreview, error) {
	tx, err := s.renamer.Compute(path, newBasename)
	if err != nil {
		return nil, err
	}
	changes, err := tx.Preview()
	if err != nil {
		return nil, err
	}
	tx.Cancel()
	newRel, relErr := s.fs.Rel(tx.NewPath())
	if relErr != nil {
		newRel = tx.NewPath()
	}
	return &RenamePreview{
		OldPath: s.relOrRaw(path),
		NewPath: newRel,
		Changes: s.relativizeChanges(changes),
	}, nil
}

// Rename computes, previews, and applies a rename in one step. backup writes
// a .bak copy of each touched file before rewriting it.
func (s *Service) Rename(_ context.Context, path, newBasename string, backup bool) (*RenameOutcome, error) {
	tx, err := s.renamer.Compute(path, newBasename)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Preview(); err != nil {
		return nil, err
	}
	res, err := tx.Apply(backup)
	if err != nil {
		return nil, err
	}
	newRel, relErr := s.fs.Rel(res.NewPath)
	if relErr != nil {
		newRel = res.NewPath
	}
	out := &RenameOutcome{
		OldPath: s.relOrRaw(path),
		NewPath: newRel,
		Applied: res.Applied,
		Failed:  res.Failed,
	}
	if res.RenameErr != nil {
		out.Partial = res.RenameErr.Error()
	}
	return out, nil
}

// Search runs full-text search over note bodies and titles. The search
// database is synced against the current index before each query, so results
// never outlive a deleted or renamed note.
func (s *Service) Search(_ context.Context, query string, limit int) ([]search.Result, error) {
	if s.db == nil {
		return nil, fmt.Errorf("full-text search is disabled")
	}
	if strings.TrimSpace(query) == "" {
		return []search.Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := search.Sync(s.db, s.index.GetOrBuild(), s.logger); err != nil {
		s.logger.Warn("search sync failed", slog.String("error", err.Error()))
	}
	return s.db.Search(query, limit)
}

// SearchEnabled reports whether a search database is attached.
func (s *Service) SearchEnabled() bool { return s.db != nil }

// PickNote presents every indexed note through the host's picker and
// returns the chosen record. The display string is the relative path.
func (s *Service) PickNote(_ context.Context, p picker.Picker) (models.NoteRecord, error) {
	records := s.index.GetOrBuild()
	items := make([]picker.Item, len(records))
	for i, rec := range records {
		items[i] = picker.Item{Display: rec.RelPath(), Value: rec}
	}
	chosen, err := p.PickOne("note", items)
	if err != nil {
		return models.NoteRecord{}, err
	}
	rec, ok := chosen.Value.(models.NoteRecord)
	if !ok {
		return models.NoteRecord{}, fmt.Errorf("picker returned foreign item %q", chosen.Display)
	}
	return rec, nil
}

func (s *Service) relOrRaw(path string) string {
	abs, err := s.fs.Abs(path)
	if err != nil {
		return path
	}
	rel, err := s.fs.Rel(abs)
	if err != nil {
		return path
	}
	return rel
}

func (s *Service) relativizeChanges(changes []models.RenameChange) []models.RenameChange {
	out := make([]models.RenameChange, len(changes))
	for i, c := range changes {
		if rel, err := s.fs.Rel(c.File); err == nil {
			c.File = rel
		}
		out[i] = c
	}
	return out
}

// Package backlink computes reverse references: every link in the notes
// root whose resolved target is a given note.
//
// There is no persistent reverse index. Note content is mutated by
// external editors at any time, so a stored link table cannot stay
// trustworthy without filesystem watching; the engine re-extracts and
// re-resolves on every call instead.
package backlink

import (
	"log/slog"
	"os"
	"strings"

	"github.com/starford/laguz/internal/extract"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/resolve"
)

// ContentSearcher narrows the set of files worth extracting. It must
// over-report: returning a superset of the files containing links is
// correct, missing one is not. A nil searcher means scan everything.
type ContentSearcher interface {
	// CandidateFiles returns absolute paths of files under root that may
	// contain link syntax.
	CandidateFiles(root string) ([]string, error)
}

// Engine scans an index snapshot for references to a target note.
type Engine struct {
	root     string
	resolver *resolve.Resolver
	searcher ContentSearcher
	logger   *slog.Logger
}

// New creates an Engine for the notes root. searcher may be nil.
func New(root string, resolver *resolve.Resolver, searcher ContentSearcher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{root: root, resolver: resolver, searcher: searcher, logger: logger}
}

// BacklinksFor returns every reference across index whose resolution
// equals targetPath, in index order (sorted by path). Unreadable notes
// are skipped and logged. Cost is O(notes x links-per-note) per call.
func (e *Engine) BacklinksFor(targetPath string, index []models.NoteRecord) []models.LinkReference {
	candidates := e.candidateSet(index)

	var out []models.LinkReference
	for _, rec := range index {
		if rec.Path == targetPath {
			continue
		}
		if candidates != nil {
			if _, ok := candidates[rec.Path]; !ok {
				continue
			}
		}
		data, err := os.ReadFile(rec.Path)
		if err != nil {
			e.logger.Warn("backlinks: skipping unreadable note",
				slog.String("path", rec.Path), slog.String("error", err.Error()))
			continue
		}
		for _, ref := range extract.Extract(rec.Path, strings.Split(string(data), "\n")) {
			resolved := e.resolver.Resolve(ref.Target, index)
			if resolved != nil && resolved.Path == targetPath {
				out = append(out, ref)
			}
		}
	}
	return out
}

// candidateSet asks the searcher for a prefilter set. Any searcher
// failure degrades to a full scan.
func (e *Engine) candidateSet(index []models.NoteRecord) map[string]struct{} {
	if e.searcher == nil || len(index) == 0 {
		return nil
	}
	files, err := e.searcher.CandidateFiles(e.root)
	if err != nil {
		e.logger.Warn("backlinks: content search failed, scanning all notes",
			slog.String("error", err.Error()))
		return nil
	}
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return set
}

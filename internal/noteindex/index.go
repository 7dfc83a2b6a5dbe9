// Package noteindex maintains the authoritative in-memory list of notes.
//
// The index is a time-boxed cache over a directory scan. It performs no
// filesystem watching: every code path that creates, deletes, moves, or
// renames a note must call Invalidate. Snapshots are replaced wholesale on
// rebuild, never mutated in place, so concurrent readers see either the
// old or the new list.
package noteindex

import (
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/pathutil"
	"github.com/starford/laguz/internal/vault"
)

// Options configures an Index.
type Options struct {
	Extensions []string                    // recognized note extensions, with dots
	Junk       []string                    // glob patterns for dirs/files to skip
	Types      map[string]models.NoteType  // top-level folder -> note type
	TTL        time.Duration               // cache staleness bound
	Scanner    DirectoryScanner            // nil = walk the root in-process
	Logger     *slog.Logger
}

// Index owns the note list. Exactly one instance exists per process; the
// host passes it by handle into each core call.
type Index struct {
	fs      *vault.FS
	exts    []string
	junk    []string
	types   map[string]models.NoteType
	ttl     time.Duration
	scanner DirectoryScanner
	walk    *WalkScanner // fallback when an external scanner fails
	logger  *slog.Logger

	mu      sync.RWMutex
	records []models.NoteRecord
	builtAt time.Time
}

// New creates an Index over fs.
func New(fs *vault.FS, opts Options) *Index {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	walk := &WalkScanner{FS: fs, Junk: opts.Junk, Logger: logger}
	scanner := opts.Scanner
	if scanner == nil {
		scanner = walk
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 120 * time.Second
	}
	return &Index{
		fs:      fs,
		exts:    opts.Extensions,
		junk:    opts.Junk,
		types:   opts.Types,
		ttl:     ttl,
		scanner: scanner,
		walk:    walk,
		logger:  logger,
	}
}

// Build rescans the notes root and replaces the cached snapshot. The
// returned list is sorted by relative path and is the caller's copy.
// Scan problems degrade to an empty or partial list, never an error:
// note roots may not exist yet on first run.
func (ix *Index) Build() []models.NoteRecord {
	paths, err := ix.scanner.Scan(ix.fs.Root())
	if err != nil {
		ix.logger.Warn("index: scanner failed, falling back to walk",
			slog.String("error", err.Error()))
		if paths, err = ix.walk.Scan(ix.fs.Root()); err != nil {
			ix.logger.Warn("index: walk failed", slog.String("error", err.Error()))
			paths = nil
		}
	}

	records := make([]models.NoteRecord, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if !pathutil.HasNoteExt(name, ix.exts) || matchesAny(name, ix.junk) {
			continue
		}
		rel, relErr := ix.fs.Rel(p)
		if relErr != nil || junkDirInPath(rel, ix.junk) {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		records = append(records, models.NewNoteRecord(ix.fs.Root(), p, ix.types))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RelPath() < records[j].RelPath()
	})

	ix.mu.Lock()
	ix.records = records
	ix.builtAt = time.Now()
	ix.mu.Unlock()

	ix.logger.Debug("index: built", slog.Int("notes", len(records)))
	return snapshot(records)
}

// GetOrBuild returns the cached snapshot, rebuilding when the TTL expired
// or nothing has been built yet.
func (ix *Index) GetOrBuild() []models.NoteRecord {
	ix.mu.RLock()
	fresh := !ix.builtAt.IsZero() && time.Since(ix.builtAt) < ix.ttl
	records := ix.records
	ix.mu.RUnlock()

	if fresh {
		return snapshot(records)
	}
	return ix.Build()
}

// Invalidate discards the cached snapshot. Callers that mutate the note
// set must invoke this; the index has no other way to notice changes.
func (ix *Index) Invalidate() {
	ix.mu.Lock()
	ix.records = nil
	ix.builtAt = time.Time{}
	ix.mu.Unlock()
}

// junkDirInPath reports whether any directory element of rel matches a
// junk pattern. Catches junk folders that an external scanner descended
// into anyway.
func junkDirInPath(rel string, junk []string) bool {
	dir := filepath.Dir(rel)
	for dir != "." && dir != string(filepath.Separator) {
		if matchesAny(filepath.Base(dir), junk) {
			return true
		}
		dir = filepath.Dir(dir)
	}
	return false
}

func snapshot(records []models.NoteRecord) []models.NoteRecord {
	out := make([]models.NoteRecord, len(records))
	copy(out, records)
	return out
}

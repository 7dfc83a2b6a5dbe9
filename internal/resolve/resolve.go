// Package resolve maps a raw link target string to a concrete note through
// an ordered fallback chain. A miss is a normal query result, not an error:
// unresolved links are common (the target note may not exist yet).
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/pathutil"
)

// Resolver resolves link targets against an index snapshot.
type Resolver struct {
	root  string
	exts  []string
	types map[string]models.NoteType
}

// New creates a Resolver for the notes root. exts are the recognized note
// extensions; types is the folder-to-note-type mapping used when a record
// has to be synthesized for a path not present in the index.
func New(root string, exts []string, types map[string]models.NoteType) *Resolver {
	return &Resolver{root: root, exts: exts, types: types}
}

// Resolve runs the fallback chain against index, first match wins:
//
//  1. exact case-insensitive basename match
//  2. match after normalizing whitespace/underscores to hyphens
//  3. match after stripping all separator characters (linear scan,
//     most permissive, only reached when 1-2 fail)
//  4. direct file existence under the notes root, appending each
//     recognized extension when the target has none
//
// A nil result means the link is unresolved.
func (r *Resolver) Resolve(target string, index []models.NoteRecord) *models.NoteRecord {
	// Path-style targets (org/markdown links) are compared by their final
	// element with any recognized note extension stripped.
	name := pathutil.Basename(strings.TrimSpace(target), r.exts)
	if name == "" {
		return nil
	}

	for i := range index {
		if strings.EqualFold(index[i].Basename, name) {
			rec := index[i]
			return &rec
		}
	}

	normalized := pathutil.NormalizeKey(name)
	for i := range index {
		if pathutil.NormalizeKey(index[i].Basename) == normalized {
			rec := index[i]
			return &rec
		}
	}

	collapsed := pathutil.CollapseKey(name)
	for i := range index {
		if pathutil.CollapseKey(index[i].Basename) == collapsed {
			rec := index[i]
			return &rec
		}
	}

	return r.resolveAsPath(strings.TrimSpace(target))
}

// resolveAsPath handles relative-path-style targets that are not indexed
// by basename, checking direct file existence under the notes root.
func (r *Resolver) resolveAsPath(target string) *models.NoteRecord {
	if target == "" || filepath.IsAbs(target) {
		return nil
	}
	clean := filepath.Clean(filepath.FromSlash(target))
	if strings.HasPrefix(clean, "..") {
		return nil
	}

	var candidates []string
	if pathutil.HasNoteExt(clean, r.exts) {
		candidates = []string{clean}
	} else {
		for _, ext := range r.exts {
			candidates = append(candidates, clean+ext)
		}
	}

	for _, c := range candidates {
		abs := filepath.Join(r.root, c)
		if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
			rec := models.NewNoteRecord(r.root, abs, r.types)
			return &rec
		}
	}
	return nil
}

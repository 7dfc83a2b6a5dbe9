// Package models defines the domain types for Laguz.
package models

import (
	"path/filepath"
	"strings"
)

// NoteType is a display-only classification derived from the folder a note
// lives in. It carries no semantics anywhere in the core.
type NoteType string

// Known note types.
const (
	NoteTypeDaily   NoteType = "daily"
	NoteTypeProject NoteType = "project"
	NoteTypePerson  NoteType = "person"
	NoteTypeGeneric NoteType = "generic"
)

// NoteRecord is one note file discovered by an index scan. Records are
// owned by the index; consumers receive copies, never live handles.
type NoteRecord struct {
	Path      string   `json:"path"`      // absolute file path, unique per snapshot
	Basename  string   `json:"basename"`  // filename without extension
	Directory string   `json:"directory"` // folder relative to the notes root, "" = root
	Type      NoteType `json:"type"`
}

// RelPath returns the note path relative to the notes root.
func (n NoteRecord) RelPath() string {
	name := filepath.Base(n.Path)
	if n.Directory == "" {
		return name
	}
	return filepath.Join(n.Directory, name)
}

// NewNoteRecord builds a NoteRecord for an absolute path under root.
// types maps top-level folder names to note types; unmapped folders and
// root-level notes are generic.
func NewNoteRecord(root, path string, types map[string]NoteType) NoteRecord {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		dir = ""
	}
	name := filepath.Base(path)
	base := strings.TrimSuffix(name, filepath.Ext(name))

	nt := NoteTypeGeneric
	if dir != "" {
		top := dir
		if i := strings.IndexRune(dir, filepath.Separator); i >= 0 {
			top = dir[:i]
		}
		if mapped, ok := types[top]; ok {
			nt = mapped
		}
	}

	return NoteRecord{Path: path, Basename: base, Directory: dir, Type: nt}
}

// LinkType identifies which link syntax produced a reference.
type LinkType string

// Supported link syntaxes.
const (
	LinkWiki      LinkType = "wiki"      // [[target]]
	LinkWikiAlias LinkType = "wikiAlias" // [[target|alias]]
	LinkZkID      LinkType = "zkId"      // [[zk:202501010000]]
	LinkOrgFile   LinkType = "orgFile"   // [[file:path][description]]
	LinkMarkdown  LinkType = "markdown"  // [text](path)
)

// LinkReference is one raw, unresolved reference found in a note. References
// are recomputed on demand and never cached.
type LinkReference struct {
	SourceFile string   `json:"source_file"` // absolute path of the note containing the link
	Line       int      `json:"line"`        // 1-based line number
	RawLine    string   `json:"raw_line"`    // whole line, kept for exact-match rewriting
	Type       LinkType `json:"type"`
	Target     string   `json:"target"` // target text exactly as written inside the syntax
}

// RenameChange is one line-level rewrite implied by renaming a note.
type RenameChange struct {
	File    string   `json:"file"`
	Line    int      `json:"line"`
	OldLine string   `json:"old_line"` // must still match the line on disk at apply time
	NewLine string   `json:"new_line"`
	Type    LinkType `json:"type"`
}

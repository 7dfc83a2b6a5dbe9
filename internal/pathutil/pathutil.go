// Package pathutil provides pure helpers for note path normalization,
// slug generation, and extension handling.
package pathutil

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	separatorRe = regexp.MustCompile(`[\s_]+`)
	slugDropRe  = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRunRe = regexp.MustCompile(`-{2,}`)
)

// Slug converts free text into a filename-safe slug: lowercase, separators
// collapsed to single hyphens, everything else dropped.
func Slug(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = separatorRe.ReplaceAllString(out, "-")
	out = slugDropRe.ReplaceAllString(out, "")
	out = hyphenRunRe.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// NormalizeKey lowercases s and collapses whitespace and underscores to
// single hyphens. Used for the resolver's normalized comparison.
func NormalizeKey(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	return separatorRe.ReplaceAllString(out, "-")
}

// CollapseKey lowercases s and strips every whitespace, hyphen, and
// underscore character. The most permissive comparison key.
func CollapseKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '-', '_':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasNoteExt reports whether name ends with one of the recognized note
// extensions (each given with a leading dot).
func HasNoteExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// StripNoteExt removes a recognized note extension from name, if present.
// Unrecognized extensions are kept (a note called "v1.2" is not truncated).
func StripNoteExt(name string, exts []string) string {
	if HasNoteExt(name, exts) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// Basename returns the final path element of target with any recognized
// note extension stripped.
func Basename(target string, exts []string) string {
	return StripNoteExt(filepath.Base(target), exts)
}

// Package extract parses one note's text into typed link references.
//
// Five syntaxes are recognized: [[target]], [[target|alias]], [[zk:ID]],
// [[file:path][description]], and [text](path). Extraction is a pure
// function of the line list; results are recomputed per operation and
// never cached.
package extract

import (
	"regexp"
	"strings"

	"github.com/starford/laguz/internal/models"
)

var (
	orgRe      = regexp.MustCompile(`\[\[file:([^\[\]]+)\]\[([^\[\]]*)\]\]`)
	wikiRe     = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	markdownRe = regexp.MustCompile(`\[([^\[\]]*)\]\(([^()]+)\)`)
	schemeRe   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// externalTarget reports whether target points outside the notes root:
// URLs and contact links are not note references.
func externalTarget(target string) bool {
	return schemeRe.MatchString(target) || strings.HasPrefix(target, "mailto:")
}

type span struct{ start, end int }

func overlaps(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// Extract returns every link reference in lines, attributed to sourceFile.
// Matches on a line are non-overlapping; where syntaxes could overlap, org
// links win over wiki links, and wiki links win over markdown links.
func Extract(sourceFile string, lines []string) []models.LinkReference {
	var refs []models.LinkReference
	for i, line := range lines {
		refs = append(refs, extractLine(sourceFile, i+1, line)...)
	}
	return refs
}

func extractLine(sourceFile string, lineNum int, line string) []models.LinkReference {
	var refs []models.LinkReference
	var taken []span

	ref := func(t models.LinkType, target string) models.LinkReference {
		return models.LinkReference{
			SourceFile: sourceFile,
			Line:       lineNum,
			RawLine:    line,
			Type:       t,
			Target:     target,
		}
	}

	// Org file links first: their inner "][" would confuse the wiki regex.
	for _, m := range orgRe.FindAllStringSubmatchIndex(line, -1) {
		taken = append(taken, span{m[0], m[1]})
		refs = append(refs, ref(models.LinkOrgFile, line[m[2]:m[3]]))
	}

	// Wiki-style links: plain, aliased, and zk identifiers.
	for _, m := range wikiRe.FindAllStringSubmatchIndex(line, -1) {
		if overlaps(taken, m[0], m[1]) {
			continue
		}
		taken = append(taken, span{m[0], m[1]})
		inner := line[m[2]:m[3]]
		switch {
		case strings.HasPrefix(inner, "zk:"):
			refs = append(refs, ref(models.LinkZkID, inner[len("zk:"):]))
		case strings.Contains(inner, "|"):
			target := inner[:strings.Index(inner, "|")]
			if externalTarget(target) {
				continue
			}
			refs = append(refs, ref(models.LinkWikiAlias, target))
		case strings.HasPrefix(inner, "file:"):
			// A wiki match carrying an org-style file: target is an org
			// link without a description; keep it out of wiki handling.
			refs = append(refs, ref(models.LinkOrgFile, inner[len("file:"):]))
		case externalTarget(inner):
			// Bare URL inside brackets, not a note reference.
		default:
			refs = append(refs, ref(models.LinkWiki, inner))
		}
	}

	// Markdown links, excluding web and contact targets.
	for _, m := range markdownRe.FindAllStringSubmatchIndex(line, -1) {
		if overlaps(taken, m[0], m[1]) {
			continue
		}
		target := line[m[4]:m[5]]
		if externalTarget(target) {
			continue
		}
		taken = append(taken, span{m[0], m[1]})
		refs = append(refs, ref(models.LinkMarkdown, target))
	}

	return refs
}

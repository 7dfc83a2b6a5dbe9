package backlink

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
)

// RipgrepSearcher shells out to rg to list files containing any link
// syntax opener. The pattern is a deliberate superset: resolution
// fallbacks make any basename-derived pattern unsound, but a file with no
// "[[" and no "](" cannot contain a note reference at all.
type RipgrepSearcher struct{}

// CandidateFiles returns absolute paths of files under root containing
// link syntax. No matches is a normal outcome, not an error.
func (RipgrepSearcher) CandidateFiles(root string) ([]string, error) {
	cmd := exec.Command("rg", "-l", "--no-messages", "-e", `\[\[`, "-e", `\]\(`, root)
	out, err := cmd.Output()
	if err != nil {
		// Exit status 1 means no matches found.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("backlink: rg: %w", err)
	}

	var files []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(root, line)
		}
		files = append(files, line)
	}
	return files, sc.Err()
}

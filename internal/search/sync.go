package search

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// Sync reconciles the search database from an index snapshot:
// new and changed notes (by checksum) are re-read and upserted, entries
// whose files are gone are deleted. Per-note failures are logged and
// skipped; Sync only fails when the database itself is unavailable.
func Sync(db *DB, records []models.NoteRecord, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	stored, err := db.Checksums()
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(records))
	for _, rec := range records {
		rel := rec.RelPath()
		onDisk[rel] = struct{}{}

		data, readErr := os.ReadFile(rec.Path)
		if readErr != nil {
			logger.Warn("search sync: read failed",
				slog.String("path", rel), slog.String("error", readErr.Error()))
			continue
		}
		cs := checksum(data)
		if stored[rel] == cs {
			continue
		}

		body := string(data)
		if err := db.Upsert(rel, deriveTitle(rec, body), cs, body); err != nil {
			logger.Warn("search sync: upsert failed",
				slog.String("path", rel), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("search sync: indexed", slog.String("path", rel))
	}

	for p := range stored {
		if _, ok := onDisk[p]; ok {
			continue
		}
		if err := db.Delete(p); err != nil {
			logger.Warn("search sync: delete failed",
				slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("search sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// deriveTitle returns the first H1 heading, falling back to the basename.
func deriveTitle(rec models.NoteRecord, body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return rec.Basename
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

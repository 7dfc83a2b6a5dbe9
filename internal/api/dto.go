package api

import (
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/search"
)

// RenameRequest is the request body for previewing or applying a rename.
type RenameRequest struct {
	Path        string `json:"path"`
	NewBasename string `json:"new_basename"`
	Backup      bool   `json:"backup,omitempty"`
}

// NoteListItem is one entry in a note listing.
type NoteListItem struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
	Type     string `json:"type"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// LinkListResponse wraps outgoing link or backlink listings.
type LinkListResponse struct {
	Links []noteservice.LinkDetail `json:"links"`
	Total int                      `json:"total"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// RenamePreviewResponse is aliased from the domain layer.
type RenamePreviewResponse = noteservice.RenamePreview

// RenameOutcomeResponse is aliased from the domain layer.
type RenameOutcomeResponse = noteservice.RenameOutcome

package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"finchat-backend/internal/models"
)

// PageRecord is one page with its embedding, persisted at ingest time so
// the summary path can cluster pages without re-partitioning the PDF.
type PageRecord struct {
	Number    int       `json:"number"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// PageStore persists per-document page records as JSON sidecar files in
// the upload directory.
type PageStore struct {
	dir string
}

// NewPageStore creates a store rooted at dir, creating it if needed.
func NewPageStore(dir string) (*PageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create page store directory: %w", err)
	}
	return &PageStore{dir: dir}, nil
}

func (s *PageStore) path(filename string) string {
	return filepath.Join(s.dir, filename+".pages.json")
}

// Save writes the page records for a document, replacing any previous set.
func (s *PageStore) Save(filename string, pages []PageRecord) error {
	data, err := json.Marshal(pages)
	if err != nil {
		return fmt.Errorf("failed to marshal pages for %s: %w", filename, err)
	}
	if err := os.WriteFile(s.path(filename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write pages for %s: %w", filename, err)
	}
	return nil
}

// Load reads the page records for a document.
func (s *PageStore) Load(filename string) ([]PageRecord, error) {
	data, err := os.ReadFile(s.path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NewInputError("pages.load", "no page data for document: "+filename)
		}
		return nil, fmt.Errorf("failed to read pages for %s: %w", filename, err)
	}

	var pages []PageRecord
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to decode pages for %s: %w", filename, err)
	}
	return pages, nil
}

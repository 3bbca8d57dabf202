package models

import "time"

// DocumentStatus tracks a registry record through ingestion.
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is the registry record for an ingested report. The vector store
// holds the chunks; this record holds bookkeeping (status, counts) so
// listing endpoints do not need to scan collections.
type Document struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	Collection string         `json:"collection"`
	Status     DocumentStatus `json:"status"`
	ChunkCount int            `json:"chunk_count"`
	PageCount  int            `json:"page_count"`
	FileSize   int64          `json:"file_size"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Validate checks required registry fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return NewInputError("document.validate", "document ID is required")
	}
	if d.Filename == "" {
		return NewInputError("document.validate", "filename is required")
	}
	if d.Collection == "" {
		return NewInputError("document.validate", "collection is required")
	}
	return nil
}

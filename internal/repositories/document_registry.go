package repositories

import (
	"context"
	"fmt"

	"finchat-backend/internal/models"
)

// DocumentRegistry tracks every ingested report and its processing status.
// The vector store holds the chunks; the registry holds the bookkeeping
// that lets handlers answer "what documents do I have" without touching
// the vector database.
type DocumentRegistry interface {
	// Register stores a new document record. Registering a filename that
	// already exists replaces the previous record, matching the ingest
	// pipeline's overwrite semantics.
	Register(ctx context.Context, doc *models.Document) error

	// Get retrieves a document record by ID.
	Get(ctx context.Context, documentID string) (*models.Document, error)

	// FindByFilename retrieves the record for an uploaded filename.
	FindByFilename(ctx context.Context, filename string) (*models.Document, error)

	// UpdateStatus transitions a document's processing status and, on
	// completion, records the final chunk and page counts.
	UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, chunkCount, pageCount int) error

	// Delete removes a document record and its index entries.
	Delete(ctx context.Context, documentID string) error

	// List returns all registered documents.
	List(ctx context.Context) ([]*models.Document, error)

	// Ping checks the backing store connection.
	Ping(ctx context.Context) error
}

// DocumentRegistryError wraps errors from registry operations with the
// operation name and the document involved.
type DocumentRegistryError struct {
	Operation  string
	DocumentID string
	Err        error
	Message    string
}

func (e *DocumentRegistryError) Error() string {
	msg := fmt.Sprintf("document registry %s failed for %q", e.Operation, e.DocumentID)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DocumentRegistryError) Unwrap() error {
	return e.Err
}

// NewDocumentRegistryError creates a registry error.
func NewDocumentRegistryError(operation, documentID string, err error, message string) *DocumentRegistryError {
	return &DocumentRegistryError{
		Operation:  operation,
		DocumentID: documentID,
		Err:        err,
		Message:    message,
	}
}

// DocumentNotFoundError indicates the requested document is not registered.
func DocumentNotFoundError(documentID string) *DocumentRegistryError {
	return &DocumentRegistryError{
		Operation:  "get",
		DocumentID: documentID,
		Message:    "document not found",
	}
}

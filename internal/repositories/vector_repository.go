package repositories

import (
	"context"

	"finchat-backend/internal/models"
)

// VectorRepository abstracts the vector index so services can be tested
// against mocks. One collection holds one ingested document's chunks.
type VectorRepository interface {
	// CreateCollection creates (or reopens) a named collection.
	CreateCollection(ctx context.Context, name string) error
	// DeleteCollection drops a collection and its persisted entries.
	DeleteCollection(ctx context.Context, name string) error
	// CollectionExists reports whether a collection is present.
	CollectionExists(ctx context.Context, name string) (bool, error)
	// ListCollections returns all collection names.
	ListCollections(ctx context.Context) ([]string, error)
	// CountChunks returns the number of stored chunks in a collection.
	CountChunks(ctx context.Context, name string) (int, error)
	// StoreChunks upserts embedded chunks into a collection.
	StoreChunks(ctx context.Context, name string, chunks []models.Chunk) error
	// SearchChunks returns the topK nearest chunks with raw similarity
	// scores, highest similarity first.
	SearchChunks(ctx context.Context, name string, queryEmbedding []float32, topK int) ([]models.ScoredChunk, error)
}

// VectorRepositoryError carries the failing operation alongside the cause.
type VectorRepositoryError struct {
	Operation string
	Err       error
	Message   string
}

func (e *VectorRepositoryError) Error() string {
	if e.Message != "" {
		return e.Operation + ": " + e.Message
	}
	if e.Err != nil {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + ": unknown error"
}

func (e *VectorRepositoryError) Unwrap() error {
	return e.Err
}

// NewVectorRepositoryError creates a new vector repository error.
func NewVectorRepositoryError(operation string, err error, message string) *VectorRepositoryError {
	return &VectorRepositoryError{
		Operation: operation,
		Err:       err,
		Message:   message,
	}
}

// CollectionNotFoundError marks a lookup against a missing collection.
func CollectionNotFoundError(name string) error {
	return NewVectorRepositoryError("collection_lookup", nil, "collection not found: "+name)
}

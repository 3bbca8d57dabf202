package repositories

import (
	"context"
	"sync"
	"time"

	"finchat-backend/internal/models"
)

// MemoryDocumentRegistry is a mutex-guarded in-memory DocumentRegistry.
// Used when Redis is not configured, and by tests.
type MemoryDocumentRegistry struct {
	mu         sync.RWMutex
	docs       map[string]*models.Document
	byFilename map[string]string
}

// NewMemoryDocumentRegistry creates an empty in-memory registry.
func NewMemoryDocumentRegistry() *MemoryDocumentRegistry {
	return &MemoryDocumentRegistry{
		docs:       make(map[string]*models.Document),
		byFilename: make(map[string]string),
	}
}

func (r *MemoryDocumentRegistry) Register(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prevID, ok := r.byFilename[doc.Filename]; ok && prevID != doc.ID {
		delete(r.docs, prevID)
	}

	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	stored := *doc
	r.docs[doc.ID] = &stored
	r.byFilename[doc.Filename] = doc.ID
	return nil
}

func (r *MemoryDocumentRegistry) Get(ctx context.Context, documentID string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[documentID]
	if !ok {
		return nil, DocumentNotFoundError(documentID)
	}
	copied := *doc
	return &copied, nil
}

func (r *MemoryDocumentRegistry) FindByFilename(ctx context.Context, filename string) (*models.Document, error) {
	r.mu.RLock()
	documentID, ok := r.byFilename[filename]
	r.mu.RUnlock()
	if !ok {
		return nil, DocumentNotFoundError("filename:" + filename)
	}
	return r.Get(ctx, documentID)
}

func (r *MemoryDocumentRegistry) UpdateStatus(ctx context.Context, documentID string, status models.DocumentStatus, chunkCount, pageCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[documentID]
	if !ok {
		return DocumentNotFoundError(documentID)
	}
	doc.Status = status
	if chunkCount > 0 {
		doc.ChunkCount = chunkCount
	}
	if pageCount > 0 {
		doc.PageCount = pageCount
	}
	doc.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryDocumentRegistry) Delete(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[documentID]
	if !ok {
		return DocumentNotFoundError(documentID)
	}
	delete(r.byFilename, doc.Filename)
	delete(r.docs, documentID)
	return nil
}

func (r *MemoryDocumentRegistry) List(ctx context.Context) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]*models.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		copied := *doc
		docs = append(docs, &copied)
	}
	return docs, nil
}

func (r *MemoryDocumentRegistry) Ping(ctx context.Context) error {
	return nil
}

package repositories

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"finchat-backend/internal/models"

	"github.com/philippgille/chromem-go"
)

// ChromemVectorRepository implements VectorRepository on top of an embedded
// chromem-go database persisted to a local directory. The directory is
// process-wide state, created on first use.
type ChromemVectorRepository struct {
	db *chromem.DB
}

// NewChromemVectorRepository opens (or creates) the persistent vector
// database under dir.
func NewChromemVectorRepository(dir string) (*ChromemVectorRepository, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, NewVectorRepositoryError("open", err, "failed to open vector database at "+dir)
	}
	return &ChromemVectorRepository{db: db}, nil
}

// NewInMemoryVectorRepository creates a non-persistent repository, used by
// tests.
func NewInMemoryVectorRepository() *ChromemVectorRepository {
	return &ChromemVectorRepository{db: chromem.NewDB()}
}

// CreateCollection creates or reopens a named collection. Chunks always
// arrive with precomputed embeddings, so no embedding function is attached.
func (r *ChromemVectorRepository) CreateCollection(ctx context.Context, name string) error {
	if _, err := r.db.GetOrCreateCollection(name, nil, noEmbedding); err != nil {
		return NewVectorRepositoryError("create_collection", err, "failed to create collection: "+name)
	}
	return nil
}

// DeleteCollection drops a collection and its persisted entries.
func (r *ChromemVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	if err := r.db.DeleteCollection(name); err != nil {
		return NewVectorRepositoryError("delete_collection", err, "failed to delete collection: "+name)
	}
	return nil
}

// CollectionExists reports whether a collection is present.
func (r *ChromemVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	return r.db.GetCollection(name, noEmbedding) != nil, nil
}

// ListCollections returns all collection names, sorted for stable output.
func (r *ChromemVectorRepository) ListCollections(ctx context.Context) ([]string, error) {
	collections := r.db.ListCollections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CountChunks returns the number of stored chunks in a collection.
func (r *ChromemVectorRepository) CountChunks(ctx context.Context, name string) (int, error) {
	col := r.db.GetCollection(name, noEmbedding)
	if col == nil {
		return 0, CollectionNotFoundError(name)
	}
	return col.Count(), nil
}

// StoreChunks upserts embedded chunks into a collection.
func (r *ChromemVectorRepository) StoreChunks(ctx context.Context, name string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	col := r.db.GetCollection(name, noEmbedding)
	if col == nil {
		return CollectionNotFoundError(name)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return NewVectorRepositoryError("store_chunks", nil,
				fmt.Sprintf("chunk %s has no embedding", chunk.ID))
		}
		docs[i] = chromem.Document{
			ID:        chunk.ID,
			Content:   chunk.Content,
			Metadata:  chunk.Metadata,
			Embedding: chunk.Embedding,
		}
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return NewVectorRepositoryError("store_chunks", err,
			fmt.Sprintf("failed to store %d chunks", len(chunks)))
	}
	return nil
}

// SearchChunks returns the topK nearest chunks with raw cosine similarity
// scores.
func (r *ChromemVectorRepository) SearchChunks(ctx context.Context, name string, queryEmbedding []float32, topK int) ([]models.ScoredChunk, error) {
	col := r.db.GetCollection(name, noEmbedding)
	if col == nil {
		return nil, CollectionNotFoundError(name)
	}

	// chromem rejects requests for more results than stored documents.
	if count := col.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, queryEmbedding, topK, nil, nil)
	if err != nil {
		return nil, NewVectorRepositoryError("search_chunks", err, "query failed")
	}

	scored := make([]models.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = models.ScoredChunk{
			Score: float64(res.Similarity),
			Chunk: models.Chunk{
				ID:        res.ID,
				Content:   res.Content,
				Metadata:  res.Metadata,
				Embedding: res.Embedding,
			},
		}
	}
	return scored, nil
}

// noEmbedding rejects any attempt to embed inside the store; the pipeline
// always supplies embeddings computed by the embedding service.
func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings must be precomputed before storage")
}

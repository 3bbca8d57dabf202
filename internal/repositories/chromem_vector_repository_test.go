package repositories

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"finchat-backend/internal/models"
)

func embeddedChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{
			ID:        fmt.Sprintf("chunk-%d", i),
			Content:   fmt.Sprintf("content %d", i),
			Embedding: []float32{float32(i) + 1, 1, 0.5},
		}
	}
	return chunks
}

func TestChromemRepository_StoreAndSearch(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	assert.NoError(t, repo.CreateCollection(ctx, "report_report.pdf"))
	assert.NoError(t, repo.StoreChunks(ctx, "report_report.pdf", embeddedChunks(3)))

	count, err := repo.CountChunks(ctx, "report_report.pdf")
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	results, err := repo.SearchChunks(ctx, "report_report.pdf", []float32{1, 1, 0.5}, 2)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "chunk-0", results[0].Chunk.ID)
}

func TestChromemRepository_SearchClampsTopK(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	assert.NoError(t, repo.CreateCollection(ctx, "small"))
	assert.NoError(t, repo.StoreChunks(ctx, "small", embeddedChunks(2)))

	results, err := repo.SearchChunks(ctx, "small", []float32{1, 0, 0}, 10)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestChromemRepository_SearchEmptyCollection(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	assert.NoError(t, repo.CreateCollection(ctx, "empty"))

	results, err := repo.SearchChunks(ctx, "empty", []float32{1, 0, 0}, 10)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemRepository_MissingCollection(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	_, err := repo.SearchChunks(ctx, "missing", []float32{1, 0, 0}, 5)
	assert.Error(t, err)

	_, err = repo.CountChunks(ctx, "missing")
	assert.Error(t, err)
}

func TestChromemRepository_RejectsUnembeddedChunks(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	assert.NoError(t, repo.CreateCollection(ctx, "c"))

	err := repo.StoreChunks(ctx, "c", []models.Chunk{{ID: "x", Content: "no embedding"}})
	assert.Error(t, err)
	assert.ErrorContains(t, err, "has no embedding")
}

func TestChromemRepository_DeleteCollection(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	assert.NoError(t, repo.CreateCollection(ctx, "c"))
	assert.NoError(t, repo.DeleteCollection(ctx, "c"))

	exists, err := repo.CollectionExists(ctx, "c")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestChromemRepository_ListCollections(t *testing.T) {
	repo := NewInMemoryVectorRepository()
	ctx := context.Background()

	assert.NoError(t, repo.CreateCollection(ctx, "b"))
	assert.NoError(t, repo.CreateCollection(ctx, "a"))

	names, err := repo.ListCollections(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}

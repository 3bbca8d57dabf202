package services

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"finchat-backend/internal/models"
)

func setupTestRetrievalService(topKSearch, topKFinal int) (*RetrievalService, *MockEmbedder, *MockVectorRepository, *MockReranker) {
	mockEmbedder := new(MockEmbedder)
	mockVectors := new(MockVectorRepository)
	mockReranker := new(MockReranker)

	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	service := NewRetrievalService(NewTextProcessor(), mockEmbedder, mockVectors, mockReranker, topKSearch, topKFinal, logger)
	return service, mockEmbedder, mockVectors, mockReranker
}

func scoredChunks(contents ...string) []models.ScoredChunk {
	out := make([]models.ScoredChunk, len(contents))
	for i, c := range contents {
		out[i] = models.ScoredChunk{
			Score: 0.5,
			Chunk: models.Chunk{ID: c, Content: c},
		}
	}
	return out
}

func TestRerank_SortsDescending(t *testing.T) {
	candidates := scoredChunks("first", "second", "third")

	reranked := Rerank(candidates, []float64{0.9, 0.2, 0.95})

	assert.Equal(t, "third", reranked[0].Chunk.Content)
	assert.Equal(t, "first", reranked[1].Chunk.Content)
	assert.Equal(t, "second", reranked[2].Chunk.Content)
	assert.Equal(t, []float64{0.95, 0.9, 0.2}, []float64{reranked[0].Score, reranked[1].Score, reranked[2].Score})
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	service, mockEmbedder, mockVectors, mockReranker := setupTestRetrievalService(10, 2)
	ctx := context.Background()

	candidates := scoredChunks("a", "b", "c", "d")
	mockEmbedder.On("EmbedQuery", mock.Anything, mock.AnythingOfType("string")).Return([]float32{0.1, 0.2}, nil)
	mockVectors.On("SearchChunks", mock.Anything, "report_test.pdf", mock.AnythingOfType("[]float32"), 10).Return(candidates, nil)
	mockReranker.On("Rerank", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]string")).
		Return([]float64{0.1, 0.8, 0.3, 0.9}, nil)

	results, err := service.Search(ctx, "report_test.pdf", "what was the revenue growth")

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "d", results[0].Chunk.Content)
	assert.Equal(t, "b", results[1].Chunk.Content)

	mockEmbedder.AssertExpectations(t)
	mockVectors.AssertExpectations(t)
	mockReranker.AssertExpectations(t)
}

func TestSearch_EmptyCollection(t *testing.T) {
	service, mockEmbedder, mockVectors, _ := setupTestRetrievalService(10, 6)
	ctx := context.Background()

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.AnythingOfType("string")).Return([]float32{0.1}, nil)
	mockVectors.On("SearchChunks", mock.Anything, "report_empty.pdf", mock.AnythingOfType("[]float32"), 10).
		Return([]models.ScoredChunk{}, nil)

	results, err := service.Search(ctx, "report_empty.pdf", "anything relevant")

	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestContext_JoinsChunks(t *testing.T) {
	service, mockEmbedder, mockVectors, mockReranker := setupTestRetrievalService(10, 6)
	ctx := context.Background()

	mockEmbedder.On("EmbedQuery", mock.Anything, mock.AnythingOfType("string")).Return([]float32{0.1}, nil)
	mockVectors.On("SearchChunks", mock.Anything, "report_test.pdf", mock.AnythingOfType("[]float32"), 10).
		Return(scoredChunks("alpha", "beta"), nil)
	mockReranker.On("Rerank", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("[]string")).
		Return([]float64{0.9, 0.4}, nil)

	joined, err := service.Context(ctx, "report_test.pdf", "growth drivers")

	assert.NoError(t, err)
	assert.Equal(t, "alpha \n\n beta", joined)
}

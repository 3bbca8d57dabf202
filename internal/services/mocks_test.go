package services

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"finchat-backend/internal/models"
)

// MockEmbedder mocks the Embedder interface.
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockVectorRepository mocks repositories.VectorRepository.
type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) CreateCollection(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockVectorRepository) DeleteCollection(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockVectorRepository) CollectionExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockVectorRepository) ListCollections(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVectorRepository) CountChunks(ctx context.Context, name string) (int, error) {
	args := m.Called(ctx, name)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorRepository) StoreChunks(ctx context.Context, name string, chunks []models.Chunk) error {
	return m.Called(ctx, name, chunks).Error(0)
}

func (m *MockVectorRepository) SearchChunks(ctx context.Context, name string, queryEmbedding []float32, topK int) ([]models.ScoredChunk, error) {
	args := m.Called(ctx, name, queryEmbedding, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScoredChunk), args.Error(1)
}

// MockReranker mocks the Reranker interface.
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	args := m.Called(ctx, query, passages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

// MockLLM mocks the LLM interface.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockPartitioner mocks the Partitioner interface.
type MockPartitioner struct {
	mock.Mock
}

func (m *MockPartitioner) Partition(ctx context.Context, filename string, content io.Reader) ([]models.Element, error) {
	args := m.Called(ctx, filename, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Element), args.Error(1)
}

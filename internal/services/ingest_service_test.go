package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"finchat-backend/internal/models"
	"finchat-backend/internal/repositories"
)

// fakeEmbedder returns a fixed small vector per input so the pipeline can
// run without an embedding backend.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func setupTestIngestService(t *testing.T) (*IngestService, *MockPartitioner, *repositories.ChromemVectorRepository, *repositories.MemoryDocumentRegistry) {
	t.Helper()

	mockPartitioner := new(MockPartitioner)
	vectors := repositories.NewInMemoryVectorRepository()
	registry := repositories.NewMemoryDocumentRegistry()

	pages, err := NewPageStore(t.TempDir())
	assert.NoError(t, err)

	service := NewIngestService(
		mockPartitioner,
		NewTextProcessor(),
		NewSplitter(800, 200),
		fakeEmbedder{},
		vectors,
		registry,
		pages,
		t.TempDir(),
		testLogger(),
	)
	return service, mockPartitioner, vectors, registry
}

func testElements(text string) []models.Element {
	return []models.Element{
		{Category: "NarrativeText", Text: text, PageNumber: 1},
	}
}

func TestCollectionNameFor(t *testing.T) {
	assert.Equal(t, "report_report.pdf", CollectionNameFor("report.pdf"))
}

func TestIngestPDF_StoresChunks(t *testing.T) {
	service, mockPartitioner, vectors, registry := setupTestIngestService(t)
	ctx := context.Background()

	mockPartitioner.On("Partition", mock.Anything, "report.pdf", mock.Anything).
		Return(testElements("The company grew revenue strongly across all segments this year."), nil)

	doc, err := service.IngestPDF(ctx, "report.pdf", strings.NewReader("%PDF-1.4 fake"), 13)

	assert.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, "report_report.pdf", doc.Collection)
	assert.Equal(t, 1, doc.PageCount)
	assert.Greater(t, doc.ChunkCount, 0)

	exists, err := vectors.CollectionExists(ctx, "report_report.pdf")
	assert.NoError(t, err)
	assert.True(t, exists)

	count, err := vectors.CountChunks(ctx, "report_report.pdf")
	assert.NoError(t, err)
	assert.Equal(t, doc.ChunkCount, count)

	stored, err := registry.FindByFilename(ctx, "report.pdf")
	assert.NoError(t, err)
	assert.Equal(t, models.DocumentStatusCompleted, stored.Status)
}

func TestIngestPDF_ReingestOverwrites(t *testing.T) {
	service, mockPartitioner, vectors, registry := setupTestIngestService(t)
	ctx := context.Background()

	longText := strings.Repeat("The company grew revenue strongly across all operating segments. ", 30)
	mockPartitioner.On("Partition", mock.Anything, "report.pdf", mock.Anything).
		Return(testElements(longText), nil).Once()
	mockPartitioner.On("Partition", mock.Anything, "report.pdf", mock.Anything).
		Return(testElements("Short replacement text about revenue."), nil).Once()

	first, err := service.IngestPDF(ctx, "report.pdf", strings.NewReader("v1"), 2)
	assert.NoError(t, err)

	second, err := service.IngestPDF(ctx, "report.pdf", strings.NewReader("v2"), 2)
	assert.NoError(t, err)
	assert.Less(t, second.ChunkCount, first.ChunkCount)

	count, err := vectors.CountChunks(ctx, "report_report.pdf")
	assert.NoError(t, err)
	assert.Equal(t, second.ChunkCount, count)

	docs, err := registry.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, docs, 1)

	mockPartitioner.AssertExpectations(t)
}

func TestIngestPDF_NoPages(t *testing.T) {
	service, mockPartitioner, _, registry := setupTestIngestService(t)
	ctx := context.Background()

	mockPartitioner.On("Partition", mock.Anything, "empty.pdf", mock.Anything).
		Return([]models.Element{}, nil)

	_, err := service.IngestPDF(ctx, "empty.pdf", strings.NewReader("x"), 1)

	assert.Error(t, err)
	assert.Equal(t, models.KindInput, models.KindOf(err))

	stored, err := registry.FindByFilename(ctx, "empty.pdf")
	assert.NoError(t, err)
	assert.Equal(t, models.DocumentStatusFailed, stored.Status)
}

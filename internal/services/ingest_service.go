package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"finchat-backend/internal/models"
	"finchat-backend/internal/repositories"
)

// collectionPrefix namespaces report collections in the vector store.
const collectionPrefix = "report_"

// CollectionNameFor maps an uploaded filename to its vector collection.
func CollectionNameFor(filename string) string {
	return collectionPrefix + filename
}

// Partitioner is the slice of PartitionClient the ingest pipeline needs.
type Partitioner interface {
	Partition(ctx context.Context, filename string, content io.Reader) ([]models.Element, error)
}

// IngestService runs the document ingestion pipeline: partition, merge
// into pages, normalize, chunk, tag, embed, store.
type IngestService struct {
	partitioner Partitioner
	textproc    *TextProcessor
	splitter    *Splitter
	embedder    Embedder
	vectors     repositories.VectorRepository
	registry    repositories.DocumentRegistry
	pages       *PageStore
	uploadDir   string
	logger      *log.Logger
}

// NewIngestService wires the ingestion pipeline.
func NewIngestService(
	partitioner Partitioner,
	textproc *TextProcessor,
	splitter *Splitter,
	embedder Embedder,
	vectors repositories.VectorRepository,
	registry repositories.DocumentRegistry,
	pages *PageStore,
	uploadDir string,
	logger *log.Logger,
) *IngestService {
	return &IngestService{
		partitioner: partitioner,
		textproc:    textproc,
		splitter:    splitter,
		embedder:    embedder,
		vectors:     vectors,
		registry:    registry,
		pages:       pages,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// IngestPDF processes an uploaded report end to end. Re-uploading a
// filename replaces its collection and page data.
func (s *IngestService) IngestPDF(ctx context.Context, filename string, content io.Reader, size int64) (*models.Document, error) {
	start := time.Now()

	doc := &models.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		Collection: CollectionNameFor(filename),
		Status:     models.DocumentStatusProcessing,
		FileSize:   size,
	}
	if err := s.registry.Register(ctx, doc); err != nil {
		return nil, err
	}

	savedPath, err := s.saveUpload(filename, content)
	if err != nil {
		s.markFailed(ctx, doc.ID)
		return nil, err
	}

	chunkCount, pageCount, err := s.process(ctx, filename, savedPath)
	if err != nil {
		s.markFailed(ctx, doc.ID)
		return nil, err
	}

	if err := s.registry.UpdateStatus(ctx, doc.ID, models.DocumentStatusCompleted, chunkCount, pageCount); err != nil {
		return nil, err
	}

	s.logger.Printf("[INGEST] %s: %d pages, %d chunks in %v", filename, pageCount, chunkCount, time.Since(start))
	doc.Status = models.DocumentStatusCompleted
	doc.ChunkCount = chunkCount
	doc.PageCount = pageCount
	return doc, nil
}

func (s *IngestService) saveUpload(filename string, content io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.uploadDir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

func (s *IngestService) process(ctx context.Context, filename, savedPath string) (chunkCount, pageCount int, err error) {
	file, err := os.Open(savedPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to reopen upload: %w", err)
	}
	defer file.Close()

	elements, err := s.partitioner.Partition(ctx, filename, file)
	if err != nil {
		return 0, 0, err
	}

	pages := MergePages(elements)
	if len(pages) == 0 {
		return 0, 0, models.NewInputError("ingest", "document produced no pages: "+filename)
	}

	chunks, err := s.buildChunks(filename, pages)
	if err != nil {
		return 0, 0, err
	}
	if len(chunks) == 0 {
		return 0, 0, models.NewInputError("ingest", "document produced no chunks: "+filename)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, 0, models.NewUpstreamError("ingest", "failed to embed chunks", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, 0, models.NewContractError("ingest",
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks)))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := s.storePages(ctx, filename, pages); err != nil {
		return 0, 0, err
	}

	collection := CollectionNameFor(filename)
	exists, err := s.vectors.CollectionExists(ctx, collection)
	if err != nil {
		return 0, 0, err
	}
	if exists {
		// Re-upload replaces the previous version of the report.
		if err := s.vectors.DeleteCollection(ctx, collection); err != nil {
			return 0, 0, err
		}
	}
	if err := s.vectors.CreateCollection(ctx, collection); err != nil {
		return 0, 0, err
	}
	if err := s.vectors.StoreChunks(ctx, collection, chunks); err != nil {
		return 0, 0, err
	}

	return len(chunks), len(pages), nil
}

// buildChunks normalizes each page, splits it, and prefixes every chunk
// with its context tag.
func (s *IngestService) buildChunks(filename string, pages []models.Page) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0
	for _, page := range pages {
		normalized := NormalizePage(page.Text)
		if normalized == "" {
			continue
		}

		parts, err := s.splitter.Split(normalized)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			tagged, err := s.textproc.TagChunk(part)
			if err != nil {
				return nil, fmt.Errorf("failed to tag chunk on page %d: %w", page.Number, err)
			}
			chunks = append(chunks, models.Chunk{
				ID:      uuid.NewString(),
				Content: tagged,
				Metadata: map[string]string{
					"filename":    filename,
					"page_number": strconv.Itoa(page.Number),
					"chunk_index": strconv.Itoa(index),
				},
				ChunkIndex: index,
				PageNumber: page.Number,
			})
			index++
		}
	}
	return chunks, nil
}

// storePages embeds each page as a whole and persists the records for the
// summary clustering path.
func (s *IngestService) storePages(ctx context.Context, filename string, pages []models.Page) error {
	texts := make([]string, len(pages))
	for i, page := range pages {
		texts[i] = NormalizePage(page.Text)
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return models.NewUpstreamError("ingest", "failed to embed pages", err)
	}
	if len(embeddings) != len(pages) {
		return models.NewContractError("ingest",
			fmt.Sprintf("embedder returned %d vectors for %d pages", len(embeddings), len(pages)))
	}

	records := make([]PageRecord, len(pages))
	for i, page := range pages {
		records[i] = PageRecord{
			Number:    page.Number,
			Text:      texts[i],
			Embedding: embeddings[i],
		}
	}
	return s.pages.Save(filename, records)
}

func (s *IngestService) markFailed(ctx context.Context, documentID string) {
	if err := s.registry.UpdateStatus(ctx, documentID, models.DocumentStatusFailed, 0, 0); err != nil {
		s.logger.Printf("[INGEST] failed to mark document %s as failed: %v", documentID, err)
	}
}

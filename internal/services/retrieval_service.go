package services

import (
	"context"
	"log"
	"sort"
	"strings"

	"finchat-backend/internal/models"
	"finchat-backend/internal/repositories"
)

// RetrievalService answers "find me the passages for this question": it
// embeds a normalized query, pulls nearest chunks from the vector store,
// and reranks them with the cross-encoder.
type RetrievalService struct {
	textproc   *TextProcessor
	embedder   Embedder
	vectors    repositories.VectorRepository
	reranker   Reranker
	topKSearch int
	topKFinal  int
	logger     *log.Logger
}

// NewRetrievalService wires the retrieval pipeline. topKSearch chunks come
// back from vector search and the best topKFinal survive reranking.
func NewRetrievalService(
	textproc *TextProcessor,
	embedder Embedder,
	vectors repositories.VectorRepository,
	reranker Reranker,
	topKSearch, topKFinal int,
	logger *log.Logger,
) *RetrievalService {
	return &RetrievalService{
		textproc:   textproc,
		embedder:   embedder,
		vectors:    vectors,
		reranker:   reranker,
		topKSearch: topKSearch,
		topKFinal:  topKFinal,
		logger:     logger,
	}
}

// Search returns the reranked top chunks for a query against a collection.
func (s *RetrievalService) Search(ctx context.Context, collection, query string) ([]models.ScoredChunk, error) {
	normalized, err := s.textproc.NormalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if normalized == "" {
		normalized = strings.ToLower(query)
	}

	embedding, err := s.embedder.EmbedQuery(ctx, normalized)
	if err != nil {
		return nil, models.NewUpstreamError("search", "failed to embed query", err)
	}

	candidates, err := s.vectors.SearchChunks(ctx, collection, embedding, s.topKSearch)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	passages := make([]string, len(candidates))
	for i, cand := range candidates {
		passages[i] = cand.Chunk.Content
	}
	scores, err := s.reranker.Rerank(ctx, normalized, passages)
	if err != nil {
		return nil, err
	}

	reranked := Rerank(candidates, scores)
	if len(reranked) > s.topKFinal {
		reranked = reranked[:s.topKFinal]
	}
	s.logger.Printf("[SEARCH] %s: %d candidates, kept %d", collection, len(candidates), len(reranked))
	return reranked, nil
}

// Context runs Search and joins the surviving chunks into one prompt
// context block.
func (s *RetrievalService) Context(ctx context.Context, collection, query string) (string, error) {
	chunks, err := s.Search(ctx, collection, query)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = chunk.Chunk.Content
	}
	return strings.Join(parts, " \n\n "), nil
}

// Rerank replaces similarity scores with cross-encoder scores and sorts
// descending. Order among equal scores follows the input.
func Rerank(candidates []models.ScoredChunk, scores []float64) []models.ScoredChunk {
	reranked := make([]models.ScoredChunk, len(candidates))
	for i := range candidates {
		reranked[i] = candidates[i]
		if i < len(scores) {
			reranked[i].Score = scores[i]
		}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	return reranked
}

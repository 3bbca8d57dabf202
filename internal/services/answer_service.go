package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"finchat-backend/internal/models"
	"finchat-backend/internal/session"
)

// AnswerService turns a session question into an answer. It classifies the
// query, derives the right context (clustered summary or reranked search),
// and drives the agent loop with that context and the chat history.
type AnswerService struct {
	llm        LLM
	retrieval  *RetrievalService
	classifier *QueryClassifier
	pages      *PageStore
	agent      *Agent
	timeout    time.Duration
	logger     *log.Logger
}

// NewAnswerService wires the answering pipeline. timeout bounds one whole
// answer run including all agent iterations.
func NewAnswerService(
	llm LLM,
	retrieval *RetrievalService,
	classifier *QueryClassifier,
	pages *PageStore,
	agent *Agent,
	timeout time.Duration,
	logger *log.Logger,
) *AnswerService {
	return &AnswerService{
		llm:        llm,
		retrieval:  retrieval,
		classifier: classifier,
		pages:      pages,
		agent:      agent,
		timeout:    timeout,
		logger:     logger,
	}
}

// Answer runs the full pipeline for one question and records the exchange
// in session memory on success.
func (s *AnswerService) Answer(ctx context.Context, sess *session.Session, query string) (string, error) {
	filename, collection := sess.Document()
	if filename == "" {
		return "", models.NewContractError("answer", "no document uploaded for this session")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	history := sess.Memory.History()
	classification := s.classifier.Classify(query)
	s.logger.Printf("[ANSWER] session=%s category=%s confidence=%.2f", sess.ID, classification.Category, classification.Confidence)

	refined := s.refineQuery(ctx, query, history)

	docContext, err := s.deriveContext(ctx, classification.Category, filename, collection, refined)
	if err != nil {
		return "", err
	}
	if docContext == "" {
		return "", models.NewInputError("answer", "no relevant content found in document")
	}

	question := fmt.Sprintf("%s\n\nDocument context:\n%s", refined, docContext)
	answer, err := s.agent.Run(ctx, question, history, s.tools(collection, filename))
	if err != nil {
		return "", err
	}

	sess.Memory.Add(query, answer)
	return answer, nil
}

// deriveContext picks the context source by category. Summary questions
// get representative pages from clustering, everything else gets reranked
// search results.
func (s *AnswerService) deriveContext(ctx context.Context, category QueryCategory, filename, collection, query string) (string, error) {
	if category == CategorySummary {
		records, err := s.pages.Load(filename)
		if err != nil {
			return "", err
		}
		return SummaryContext(records), nil
	}
	return s.retrieval.Context(ctx, collection, query)
}

// refineQuery asks the model to sharpen the question given the history.
// Refinement is best-effort; any failure falls back to the raw query.
func (s *AnswerService) refineQuery(ctx context.Context, query, history string) string {
	if history == "" {
		return query
	}

	prompt := fmt.Sprintf(`Rewrite the user's latest question so it is clear and self-contained, resolving any references to the earlier conversation. Reply with the rewritten question only.

Conversation:
%s

Latest question: %s`, history, query)

	refined, err := s.llm.Generate(ctx, prompt)
	if err != nil || refined == "" {
		s.logger.Printf("[ANSWER] query refinement skipped: %v", err)
		return query
	}
	return refined
}

// tools builds the agent toolset bound to the session's document.
func (s *AnswerService) tools(collection, filename string) []AgentTool {
	return []AgentTool{
		{
			Name:        "summarize",
			Description: "Get representative passages covering the whole document. Input is ignored.",
			Run: func(ctx context.Context, _ string) (string, error) {
				records, err := s.pages.Load(filename)
				if err != nil {
					return "", err
				}
				return SummaryContext(records), nil
			},
		},
		{
			Name:        "search_document",
			Description: "Search the document for passages relevant to a question. Input is the search query.",
			Run: func(ctx context.Context, input string) (string, error) {
				return s.retrieval.Context(ctx, collection, input)
			},
		},
	}
}

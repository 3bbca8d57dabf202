package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"finchat-backend/internal/models"
)

// Reranker scores query/passage pairs with a cross-encoder. Scores are
// comparable only within one call.
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)
}

// RerankClient calls a rerank HTTP endpoint serving a cross-encoder model.
type RerankClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewRerankClient creates a client for the rerank service.
func NewRerankClient(baseURL, model string, logger *log.Logger) *RerankClient {
	return &RerankClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank returns one relevance score per passage, aligned by index.
func (c *RerankClient) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: passages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	var parsed rerankResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				return fmt.Errorf("rerank service returned %d: %s", resp.StatusCode, string(respBody))
			}
			parsed = rerankResponse{}
			return json.NewDecoder(resp.Body).Decode(&parsed)
		},
		retry.Attempts(3),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, models.NewUpstreamError("rerank", "rerank request failed", err)
	}

	if len(parsed.Results) != len(passages) {
		return nil, models.NewContractError("rerank",
			fmt.Sprintf("rerank returned %d scores for %d passages", len(parsed.Results), len(passages)))
	}

	scores := make([]float64, len(passages))
	for _, res := range parsed.Results {
		if res.Index < 0 || res.Index >= len(scores) {
			return nil, models.NewContractError("rerank",
				fmt.Sprintf("rerank returned out-of-range index %d", res.Index))
		}
		scores[res.Index] = res.RelevanceScore
	}
	c.logger.Printf("[RERANK] scored %d passages", len(passages))
	return scores, nil
}

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"finchat-backend/internal/models"
)

func TestRerankClient_AlignsScoresByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)

		var req rerankRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-reranker", req.Model)
		assert.Equal(t, "revenue growth", req.Query)
		assert.Len(t, req.Documents, 3)

		// Results deliberately out of order to exercise index alignment.
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"index": 2, "relevance_score": 0.95},
			{"index": 0, "relevance_score": 0.9},
			{"index": 1, "relevance_score": 0.2}
		]}`))
	}))
	defer server.Close()

	client := NewRerankClient(server.URL, "test-reranker", testLogger())
	scores, err := client.Rerank(context.Background(), "revenue growth", []string{"a", "b", "c"})

	assert.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.2, 0.95}, scores)
}

func TestRerankClient_EmptyPassages(t *testing.T) {
	client := NewRerankClient("http://unused", "test-reranker", testLogger())
	scores, err := client.Rerank(context.Background(), "anything", nil)

	assert.NoError(t, err)
	assert.Nil(t, scores)
}

func TestRerankClient_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"index": 0, "relevance_score": 0.5}]}`))
	}))
	defer server.Close()

	client := NewRerankClient(server.URL, "test-reranker", testLogger())
	_, err := client.Rerank(context.Background(), "q", []string{"a", "b"})

	assert.Error(t, err)
	assert.Equal(t, models.KindContract, models.KindOf(err))
}

func TestRerankClient_OutOfRangeIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"index": 5, "relevance_score": 0.7}]}`))
	}))
	defer server.Close()

	client := NewRerankClient(server.URL, "test-reranker", testLogger())
	_, err := client.Rerank(context.Background(), "q", []string{"a"})

	assert.Error(t, err)
	assert.Equal(t, models.KindContract, models.KindOf(err))
}

func TestRerankClient_RetriesUpstreamFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [{"index": 0, "relevance_score": 0.8}]}`))
	}))
	defer server.Close()

	client := NewRerankClient(server.URL, "test-reranker", testLogger())
	scores, err := client.Rerank(context.Background(), "q", []string{"a"})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []float64{0.8}, scores)
}

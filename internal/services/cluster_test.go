package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryClusterCount(t *testing.T) {
	tests := []struct {
		pages int
		want  int
	}{
		{1, 1},
		{2, 1},
		{10, 5},
		{20, 10},
		{21, 11},
		{100, 11},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d pages", tt.pages), func(t *testing.T) {
			assert.Equal(t, tt.want, SummaryClusterCount(tt.pages))
		})
	}
}

func makePages(n int, textLen int) []PageRecord {
	pages := make([]PageRecord, n)
	for i := range pages {
		pages[i] = PageRecord{
			Number: i + 1,
			Text:   strings.Repeat(fmt.Sprintf("page %d content ", i+1), textLen),
			// Spread pages along one axis so clusters are well separated.
			Embedding: []float32{float32(i), float32(i % 3), 1},
		}
	}
	return pages
}

func TestSummaryContext_Deterministic(t *testing.T) {
	pages := makePages(30, 30)

	first := SummaryContext(pages)
	second := SummaryContext(pages)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSummaryContext_FiltersShortPages(t *testing.T) {
	pages := makePages(6, 1) // every page text is well under the length floor

	assert.Empty(t, SummaryContext(pages))
}

func TestSummaryContext_DocumentOrder(t *testing.T) {
	pages := makePages(30, 30)

	parts := strings.Split(SummaryContext(pages), "\n\n")
	assert.NotEmpty(t, parts)

	// Representatives must appear in page order.
	lastPage := 0
	for _, part := range parts {
		var page int
		_, err := fmt.Sscanf(part, "page %d", &page)
		assert.NoError(t, err)
		assert.Greater(t, page, lastPage)
		lastPage = page
	}
}

func TestSummaryContext_Empty(t *testing.T) {
	assert.Empty(t, SummaryContext(nil))
}

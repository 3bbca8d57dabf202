package services

import "strings"

// QueryCategory is the routing decision for an incoming question.
type QueryCategory string

const (
	// CategorySummary routes through whole-document clustering.
	CategorySummary QueryCategory = "summary"
	// CategoryDirect routes through vector search and reranking.
	CategoryDirect QueryCategory = "direct"
)

// Classification is a routing decision with its supporting evidence.
type Classification struct {
	Category   QueryCategory
	Confidence float64
	Matched    []string
}

// summaryKeywords are the cues that a question asks about the document as
// a whole rather than a specific fact in it.
var summaryKeywords = []string{
	"summary",
	"summarize",
	"summarise",
	"overview",
	"brief",
	"about",
}

// QueryClassifier decides whether a question wants a whole-document
// summary or a targeted answer.
type QueryClassifier struct{}

// NewQueryClassifier creates a keyword classifier.
func NewQueryClassifier() *QueryClassifier {
	return &QueryClassifier{}
}

// Classify inspects the query for summary cues with case-insensitive
// substring matching. "about" matches inside phrases like "what is this
// report about", which intentionally routes those to the summary path.
// Confidence grows with the number of distinct cues matched and is 1.0
// for direct queries, which are the default route.
func (c *QueryClassifier) Classify(query string) Classification {
	lowered := strings.ToLower(query)

	var matched []string
	for _, kw := range summaryKeywords {
		if strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}

	if len(matched) == 0 {
		return Classification{Category: CategoryDirect, Confidence: 1.0}
	}

	confidence := 0.5 + 0.25*float64(len(matched))
	if confidence > 1.0 {
		confidence = 1.0
	}
	return Classification{
		Category:   CategorySummary,
		Confidence: confidence,
		Matched:    matched,
	}
}

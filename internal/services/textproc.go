package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// contextTagTokens caps how many salient tokens form a chunk's context
// preamble.
const contextTagTokens = 30

// TextProcessor normalizes queries and builds context-tagged chunk content.
// The same stopword set and tokenizer are used on both the ingestion and the
// query path so the vocabulary of stored context tags and normalized queries
// stays aligned.
type TextProcessor struct {
	stopWords map[string]bool
}

// NewTextProcessor creates a text processor with the English stopword set.
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{stopWords: englishStopwords()}
}

// Tokenize splits text into word tokens. Tagging, entity extraction and
// sentence segmentation are disabled; only the tokenizer is needed here.
func (tp *TextProcessor) Tokenize(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	return words, nil
}

// FilterStopwords drops stopword tokens, preserving order.
func (tp *TextProcessor) FilterStopwords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tp.stopWords[strings.ToLower(tok)] {
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered
}

// ContextTag returns the salient-token preamble for a chunk: the first 30
// non-stopword tokens that are purely alphabetic or mixed alphanumeric.
// Pure numbers and punctuation never make it into the tag.
func (tp *TextProcessor) ContextTag(filteredTokens []string) string {
	tag := make([]string, 0, contextTagTokens)
	limit := contextTagTokens
	if len(filteredTokens) < limit {
		limit = len(filteredTokens)
	}
	for _, tok := range filteredTokens[:limit] {
		if isContextToken(tok) {
			tag = append(tag, tok)
		}
	}
	return strings.Join(tag, " ")
}

// TagChunk builds the literal content string stored in the vector index:
// a context preamble of salient terms followed by the stopword-filtered
// chunk body. The preamble biases embedding similarity toward those terms.
func (tp *TextProcessor) TagChunk(content string) (string, error) {
	tokens, err := tp.Tokenize(content)
	if err != nil {
		return "", err
	}
	filtered := tp.FilterStopwords(tokens)
	tag := tp.ContextTag(filtered)
	return fmt.Sprintf("DOCUMENT-CONTEXT:[%s]. DOCUMENT-CONTENT: %s", tag, strings.Join(filtered, " ")), nil
}

// NormalizeQuery applies the same normalization as ingestion tagging:
// lowercase, newline flattening, tokenization, stopword removal.
func (tp *TextProcessor) NormalizeQuery(query string) (string, error) {
	clean := strings.ReplaceAll(strings.ToLower(query), "\n", " ")
	tokens, err := tp.Tokenize(clean)
	if err != nil {
		return "", err
	}
	return strings.Join(tp.FilterStopwords(tokens), " "), nil
}

// NormalizePage lowercases a merged page and flattens newlines, matching the
// pre-split cleanup of the ingestion pipeline.
func NormalizePage(page string) string {
	return strings.ReplaceAll(strings.ToLower(page), "\n", " ")
}

// isContextToken reports whether a token is eligible for the context tag:
// pure letters, or a letter/digit mix. Pure digits and anything holding
// punctuation are rejected.
func isContextToken(s string) bool {
	if s == "" {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return hasLetter
}

// englishStopwords returns the standard English stopword set.
func englishStopwords() map[string]bool {
	words := []string{
		"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
		"your", "yours", "yourself", "yourselves", "he", "him", "his",
		"himself", "she", "her", "hers", "herself", "it", "its", "itself",
		"they", "them", "their", "theirs", "themselves", "what", "which",
		"who", "whom", "this", "that", "these", "those", "am", "is", "are",
		"was", "were", "be", "been", "being", "have", "has", "had", "having",
		"do", "does", "did", "doing", "a", "an", "the", "and", "but", "if",
		"or", "because", "as", "until", "while", "of", "at", "by", "for",
		"with", "about", "against", "between", "into", "through", "during",
		"before", "after", "above", "below", "to", "from", "up", "down",
		"in", "out", "on", "off", "over", "under", "again", "further",
		"then", "once", "here", "there", "when", "where", "why", "how",
		"all", "any", "both", "each", "few", "more", "most", "other",
		"some", "such", "no", "nor", "not", "only", "own", "same", "so",
		"than", "too", "very", "s", "t", "can", "will", "just", "don",
		"should", "now", "d", "ll", "m", "o", "re", "ve", "y", "ain",
		"aren", "couldn", "didn", "doesn", "hadn", "hasn", "haven", "isn",
		"ma", "mightn", "mustn", "needn", "shan", "shouldn", "wasn",
		"weren", "won", "wouldn",
	}

	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

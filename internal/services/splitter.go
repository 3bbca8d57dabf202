package services

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter cuts normalized page text into overlapping chunks sized for the
// embedding model's context window.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

// NewSplitter creates a recursive character splitter. Separators run from
// paragraph breaks down to single characters so a chunk boundary lands on
// the largest natural break available.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		),
	}
}

// Split returns the chunks of text in document order.
func (s *Splitter) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}
	return chunks, nil
}

package models

// Chunk represents a unit of document text stored with metadata for retrieval.
// Metadata values are flattened to strings before persistence; list-valued
// element metadata is joined with ", " during ingestion.
type Chunk struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float32         `json:"embedding,omitempty"`
	ChunkIndex int               `json:"chunk_index"`
	PageNumber int               `json:"page_number,omitempty"`
}

// ScoredChunk pairs a chunk with a relevance score. The score source depends
// on the pipeline stage: raw vector similarity after nearest-neighbor search,
// cross-encoder relevance after re-ranking.
type ScoredChunk struct {
	Score float64 `json:"score"`
	Chunk Chunk   `json:"chunk"`
}

// Element is a typed block returned by the document partitioning service.
type Element struct {
	Category   string            `json:"category"`
	Text       string            `json:"text"`
	HTML       string            `json:"html,omitempty"`
	PageNumber int               `json:"page_number"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ElementCategoryTable marks elements carrying table structure. Tables are
// converted from HTML to Markdown before storage so the LLM can still read
// the tabular layout.
const ElementCategoryTable = "Table"

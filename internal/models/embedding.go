package models

// TextSegment is a piece of extracted text with its origin
type TextSegment struct {
	Content string `json:"content"`
	Page    int    `json:"page,omitempty"` // 1-based, 0 when the format has no pages
	Source  string `json:"source"`
}

// DocumentStats summarizes an indexed document
type DocumentStats struct {
	Pages  int `json:"pages"`
	Chunks int `json:"chunks"`
	Words  int `json:"words"`
}

// Document is an uploaded file and the text extracted from it
type Document struct {
	Name     string        `json:"name"`
	Ext      string        `json:"ext"`
	MIME     string        `json:"mime"`
	Hash     string        `json:"hash"`
	Segments []TextSegment `json:"-"`
	Stats    DocumentStats `json:"stats"`
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Content string `json:"content"`
	Segment int    `json:"segment"`
	Page    int    `json:"page,omitempty"`
	Source  string `json:"source"`
}

// ScoredChunk is a retrieval hit, higher score means more similar
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}

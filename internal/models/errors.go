package models

import "errors"

// Extraction, indexing and generation failures. Callers wrap these with
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoReadableText    = errors.New("no readable text found")
	ErrEmptySheet        = errors.New("spreadsheet is empty")
	ErrEmptyChunkSet     = errors.New("no valid text chunks found in the document")
	ErrGeneration        = errors.New("answer generation failed")
	ErrExtractionIO      = errors.New("extraction io failure")
	ErrMalformedFile     = errors.New("malformed file")
)

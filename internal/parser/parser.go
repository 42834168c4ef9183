package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"document-qa/internal/config"
	"document-qa/internal/models"
	"document-qa/internal/ocr"
)

const defaultMaxOCRPages = 20

// Parser turns an uploaded file into text segments
type Parser interface {
	Extract(ctx context.Context, name string, data []byte) ([]models.TextSegment, error)
}

// Extractor dispatches on the file extension. OCR collaborators are only
// needed for images and scanned PDFs; without them those paths fail with
// ErrExtractionIO.
type Extractor struct {
	recognizer  ocr.Recognizer
	rasterizer  ocr.Rasterizer
	maxOCRPages int
}

func NewExtractor(recognizer ocr.Recognizer, rasterizer ocr.Rasterizer, cfg *config.OCRConfig) *Extractor {
	maxPages := defaultMaxOCRPages
	if cfg != nil && cfg.MaxPages > 0 {
		maxPages = cfg.MaxPages
	}
	return &Extractor{
		recognizer:  recognizer,
		rasterizer:  rasterizer,
		maxOCRPages: maxPages,
	}
}

// Ext returns the lower-cased extension of name, including the dot
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// DetectMIME sniffs the content type of data
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

func (e *Extractor) Extract(ctx context.Context, name string, data []byte) ([]models.TextSegment, error) {
	ext := Ext(name)
	log.Debug().Str("file", name).Str("ext", ext).Int("bytes", len(data)).Msg("Extracting text")

	var (
		segments []models.TextSegment
		err      error
	)
	switch ext {
	case ".pdf":
		segments, err = e.parsePDF(ctx, data)
	case ".png", ".jpg", ".jpeg":
		segments, err = e.parseImage(ctx, data)
	case ".docx":
		segments, err = parseDOCX(data)
	case ".xlsx":
		segments, err = parseXLSX(data)
	case ".txt":
		segments, err = parseText(data)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	log.Debug().Str("file", name).Int("segments", len(segments)).Msg("Extracted text")
	return segments, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

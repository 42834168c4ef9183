package parser

import (
	"context"
	"fmt"
	"strings"

	"document-qa/internal/models"
)

func (e *Extractor) parseImage(ctx context.Context, data []byte) ([]models.TextSegment, error) {
	if mime := DetectMIME(data); !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: content is %s, not an image", models.ErrUnsupportedFormat, mime)
	}
	if e.recognizer == nil {
		return nil, fmt.Errorf("%w: ocr is not configured", models.ErrExtractionIO)
	}

	text, err := e.recognizer.RecognizeImage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionIO, err)
	}
	if isBlank(text) {
		return nil, fmt.Errorf("%w in image", models.ErrNoReadableText)
	}

	return []models.TextSegment{{
		Content: strings.TrimSpace(text),
		Source:  models.SourceOCRImage,
	}}, nil
}

package parser

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"document-qa/internal/models"
)

// parseText decodes UTF-8, honouring a UTF-8 or UTF-16 byte order mark
func parseText(data []byte) ([]models.TextSegment, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("%w: txt: %v", models.ErrMalformedFile, err)
	}

	content := strings.TrimSpace(strings.ReplaceAll(string(decoded), "\r\n", "\n"))
	if content == "" {
		return nil, fmt.Errorf("%w in text file", models.ErrNoReadableText)
	}
	return []models.TextSegment{{
		Content: content,
		Source:  models.SourceText,
	}}, nil
}

package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"document-qa/internal/helper"
	"document-qa/internal/models"
)

func (e *Extractor) parsePDF(ctx context.Context, data []byte) ([]models.TextSegment, error) {
	pages, err := readPDFText(data)
	if err != nil {
		return nil, err
	}

	var segments []models.TextSegment
	for i, text := range pages {
		if isBlank(text) {
			continue
		}
		segments = append(segments, models.TextSegment{
			Content: strings.TrimSpace(text),
			Page:    i + 1,
			Source:  models.SourcePDF,
		})
	}
	if len(segments) > 0 {
		return segments, nil
	}

	log.Info().Int("pages", len(pages)).Msg("PDF has no text layer, falling back to OCR")
	return e.ocrPDF(ctx, data)
}

// readPDFText returns the plain text of every page. The pdf library panics
// on some malformed inputs, so panics are turned into ErrMalformedFile.
func readPDFText(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: pdf: %v", models.ErrMalformedFile, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: %v", models.ErrMalformedFile, err)
	}

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf page %d: %v", models.ErrMalformedFile, i, err)
		}
		pages = append(pages, pageText)
	}
	return pages, nil
}

// ocrPDF rasterizes the first maxOCRPages pages into a scratch dir and OCRs
// each one. Pages that fail OCR are skipped.
func (e *Extractor) ocrPDF(ctx context.Context, data []byte) ([]models.TextSegment, error) {
	if e.recognizer == nil || e.rasterizer == nil {
		return nil, fmt.Errorf("%w: ocr is not configured", models.ErrExtractionIO)
	}

	dir, cleanup, err := helper.TempWorkspace("docqa-pdf-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionIO, err)
	}
	defer cleanup()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionIO, err)
	}

	images, err := e.rasterizer.Rasterize(ctx, pdfPath, dir, e.maxOCRPages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionIO, err)
	}
	if len(images) > e.maxOCRPages {
		images = images[:e.maxOCRPages]
	}

	var segments []models.TextSegment
	for i, imagePath := range images {
		page := i + 1
		img, err := os.ReadFile(imagePath)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("OCR failed")
			continue
		}
		text, err := e.recognizer.RecognizeImage(ctx, img)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("OCR failed")
			continue
		}
		if isBlank(text) {
			continue
		}
		segments = append(segments, models.TextSegment{
			Content: strings.TrimSpace(text),
			Page:    page,
			Source:  models.SourceOCRPDF,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w in PDF", models.ErrNoReadableText)
	}
	return segments, nil
}

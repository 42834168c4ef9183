// Package ocr turns page images into text.
//
// Two engines are available. The default shells out to the tesseract
// binary, the same way pytesseract-style tooling does. Building with the
// "ocr" tag adds an in-process engine based on gosseract, which needs the
// tesseract and leptonica development headers:
//
//	apt-get install tesseract-ocr libtesseract-dev libleptonica-dev
//	go build -tags ocr ./...
//
// Scanned PDFs are rasterized with pdftoppm (poppler-utils) before OCR.
package ocr

import (
	"context"
	"fmt"

	"document-qa/internal/config"
)

// Recognizer extracts text from an encoded image (PNG, JPEG, TIFF...).
// An empty result is not an error; callers decide what empty means.
type Recognizer interface {
	RecognizeImage(ctx context.Context, image []byte) (string, error)
}

// Rasterizer renders the first maxPages pages of a PDF into image files
// inside outDir and returns their paths in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, maxPages int) ([]string, error)
}

// NewRecognizer builds the engine selected in cfg
func NewRecognizer(cfg *config.OCRConfig) (Recognizer, error) {
	switch cfg.Engine {
	case "", "cli":
		return NewTesseractCLI(cfg.TesseractPath, cfg.Language, cfg.Timeout), nil
	case "gosseract":
		client, err := NewClient(cfg.Language)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", cfg.Engine)
	}
}

// NewRasterizer builds the pdftoppm rasterizer from cfg
func NewRasterizer(cfg *config.OCRConfig) Rasterizer {
	return NewPdftoppm(cfg.PdftoppmPath, cfg.DPI)
}

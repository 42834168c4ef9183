package ocr

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-qa/internal/config"
)

func TestNewRecognizer(t *testing.T) {
	t.Run("ShouldDefaultToTesseractCLI", func(t *testing.T) {
		r, err := NewRecognizer(&config.OCRConfig{})
		require.NoError(t, err)
		cli, ok := r.(*TesseractCLI)
		require.True(t, ok)
		assert.Equal(t, "tesseract", cli.path)
		assert.Equal(t, "eng", cli.language)
	})

	t.Run("ShouldRejectUnknownEngine", func(t *testing.T) {
		_, err := NewRecognizer(&config.OCRConfig{Engine: "magic"})
		assert.Error(t, err)
	})
}

func TestTesseractCLIMissingBinary(t *testing.T) {
	cli := NewTesseractCLI(filepath.Join(t.TempDir(), "no-such-tesseract"), "eng", time.Second)
	_, err := cli.RecognizeImage(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}

func TestPdftoppmMissingBinary(t *testing.T) {
	p := NewPdftoppm(filepath.Join(t.TempDir(), "no-such-pdftoppm"), 72)
	_, err := p.Rasterize(context.Background(), "in.pdf", t.TempDir(), 1)
	assert.Error(t, err)
}

func TestPageNumber(t *testing.T) {
	assert.Equal(t, 1, pageNumber("/tmp/x/page-1.png"))
	assert.Equal(t, 12, pageNumber("/tmp/x/page-12.png"))
	assert.Equal(t, 3, pageNumber("/tmp/x/page-03.png"))
	assert.Equal(t, 0, pageNumber("/tmp/x/cover.png"))
}

func TestTesseractCLI(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
	cli := NewTesseractCLI("", "eng", 10*time.Second)
	// a blank image is valid input and yields no text
	_, err := cli.RecognizeImage(context.Background(), blankPNG(t))
	assert.NoError(t, err)
}

func TestNewRecognizerGosseractWithoutTag(t *testing.T) {
	r, err := NewRecognizer(&config.OCRConfig{Engine: "gosseract"})
	if err == nil {
		t.Skip("built with the ocr tag")
	}
	assert.Nil(t, r)
}

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const pagePrefix = "page"

// Pdftoppm rasterizes PDF pages to PNG with poppler's pdftoppm
type Pdftoppm struct {
	path string
	dpi  int
}

func NewPdftoppm(path string, dpi int) *Pdftoppm {
	if path == "" {
		path = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = 300
	}
	return &Pdftoppm{path: path, dpi: dpi}
}

func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath, outDir string, maxPages int) ([]string, error) {
	args := []string{"-r", strconv.Itoa(p.dpi), "-png", "-f", "1"}
	if maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(maxPages))
	}
	args = append(args, pdfPath, filepath.Join(outDir, pagePrefix))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	// pdftoppm names pages page-1.png or page-01.png depending on page count
	images, err := filepath.Glob(filepath.Join(outDir, pagePrefix+"-*.png"))
	if err != nil {
		return nil, err
	}
	sort.Slice(images, func(i, j int) bool {
		return pageNumber(images[i]) < pageNumber(images[j])
	})
	return images, nil
}

func pageNumber(path string) int {
	name := strings.TrimSuffix(filepath.Base(path), ".png")
	n, err := strconv.Atoi(strings.TrimPrefix(name, pagePrefix+"-"))
	if err != nil {
		return 0
	}
	return n
}

//go:build !ocr

package ocr

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled is returned when the gosseract engine is requested but
// the binary was built without the "ocr" tag.
var ErrOCRNotEnabled = errors.New("gosseract engine not enabled; rebuild with -tags ocr or use engine: cli")

// Client is the stub used without the "ocr" build tag
type Client struct{}

func NewClient(language string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is safe to call on a nil client
func (c *Client) Close() error {
	return nil
}

func (c *Client) RecognizeImage(ctx context.Context, image []byte) (string, error) {
	return "", ErrOCRNotEnabled
}

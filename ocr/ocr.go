//go:build ocr

package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Client wraps a Tesseract instance.
type Client struct {
	client *gosseract.Client
}

// New creates a client for English text.
// The client must be closed to release the Tesseract handle.
func New() (*Client, error) {
	return &Client{client: gosseract.NewClient()}, nil
}

// NewWithLanguage creates a client for the given "+" separated languages.
func NewWithLanguage(lang string) (*Client, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	if lang == "" {
		return c, nil
	}
	if err := c.SetLanguage(lang); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the Tesseract handle. It is safe to call on a nil client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// RecognizeImage runs OCR over encoded image data (PNG, TIFF, JPEG).
// The result has surrounding whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// SetLanguage sets the recognition language(s), e.g. "eng+jpn".
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(strings.Split(lang, "+")...)
}

// SetPageSegMode sets the page segmentation mode.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return c.client.SetPageSegMode(gosseract.PageSegMode(mode))
}

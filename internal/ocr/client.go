package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client sends images to an HTTP text-recognition service running a fixed
// language profile (chi_sim for the marketplaces this targets).
type Client struct {
	endpoint   string
	lang       string
	httpClient *http.Client
	logger     *zap.Logger
}

type request struct {
	ImageURL  string `json:"image_url,omitempty"`
	ImageData string `json:"image_data,omitempty"`
	Lang      string `json:"lang"`
}

type response struct {
	Text string `json:"text"`
}

func NewClient(endpoint, lang string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		lang:       lang,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// RecognizeURL asks the engine to fetch imageURL itself and OCR it. This is
// the form the enrichment pipeline uses: the image URLs were already
// resolved by extraction and there is no point pulling the bytes through
// this process as well.
func (c *Client) RecognizeURL(ctx context.Context, imageURL string) (string, error) {
	return c.recognize(ctx, request{ImageURL: imageURL, Lang: c.lang})
}

// Recognize OCRs image bytes already held by the caller, sent base64-encoded.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	return c.recognize(ctx, request{ImageData: base64.StdEncoding.EncodeToString(image), Lang: c.lang})
}

func (c *Client) recognize(ctx context.Context, payload request) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("ocr call failed", zap.Error(err))
		return "", fmt.Errorf("call ocr service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("ocr returned non-2xx", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("ocr service returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ocr response: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Warn("ocr returned malformed body", zap.Error(err))
		return "", fmt.Errorf("decode ocr response: %w", err)
	}
	return out.Text, nil
}

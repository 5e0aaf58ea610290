package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks the LibreTranslate wire protocol. The source language is
// fixed at construction and never auto-detected; mixing detection into some
// calls and not others makes fallback translations unpredictable.
type Client struct {
	endpoint   string
	sourceLang string
	httpClient *http.Client
	cache      *Cache
	logger     *zap.Logger
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
}

// NewClient builds a translation client. cache may be nil when no Redis is
// configured.
func NewClient(endpoint, sourceLang string, timeout time.Duration, cache *Cache, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		sourceLang: sourceLang,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		logger:     logger,
	}
}

// Translate returns text rendered into targetLang. Blank input returns ""
// without touching the network. The error return carries transport and
// protocol failures for the caller to log or count; callers treating
// translation as optional collapse it to "".
func (c *Client) Translate(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, text, targetLang); ok {
			return cached, nil
		}
	}

	body, err := json.Marshal(request{
		Q:      text,
		Source: c.sourceLang,
		Target: targetLang,
		Format: "text",
	})
	if err != nil {
		return "", fmt.Errorf("marshal translate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build translate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("translate call failed", zap.Error(err))
		return "", fmt.Errorf("call translate service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("translate returned non-2xx", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("translate service returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read translate response: %w", err)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Warn("translate returned malformed body", zap.Error(err))
		return "", fmt.Errorf("decode translate response: %w", err)
	}

	if c.cache != nil && out.TranslatedText != "" {
		c.cache.Put(ctx, text, targetLang, out.TranslatedText)
	}
	return out.TranslatedText, nil
}

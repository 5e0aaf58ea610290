package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"csmscraper/internal/domain"
)

// Client writes products to a WooCommerce store over its REST API. Auth is
// query-string consumer key/secret, which works without HTTPS client
// certificates on hosts that strip Authorization headers.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	httpClient     *http.Client
	logger         *zap.Logger
}

// Error is a rejected catalog write, carrying whatever detail the store
// returned.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Detail)
}

func NewClient(baseURL, consumerKey, consumerSecret string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:        baseURL,
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// CreateProduct performs one product create against the store and returns
// the store's representation of the created product. No retries; retrying a
// failed import is the caller's call to make.
func (c *Client) CreateProduct(ctx context.Context, item domain.CatalogItem) (json.RawMessage, error) {
	endpoint, err := c.productsURL()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("marshal product: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call catalog: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("catalog rejected product",
			zap.Int("status", resp.StatusCode),
			zap.String("name", item.Name))
		return nil, &Error{StatusCode: resp.StatusCode, Detail: string(raw)}
	}

	return json.RawMessage(raw), nil
}

func (c *Client) productsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse catalog base url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/wp-json/wc/v3/products"
	q := u.Query()
	q.Set("consumer_key", c.consumerKey)
	q.Set("consumer_secret", c.consumerSecret)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

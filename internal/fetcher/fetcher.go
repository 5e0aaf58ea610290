package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fixed desktop browser identity; the target marketplaces refuse obvious
// non-browser clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

// Error is a failed page retrieval. StatusCode is zero when the request
// never produced a response.
type Error struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

// RawPage is the unparsed markup of one fetched page.
type RawPage struct {
	URL  string
	HTML string
}

// Fetcher retrieves remote pages over plain HTTP. No retries, no redirect
// policy beyond the transport default.
type Fetcher struct {
	client *http.Client
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET against url and returns the response body.
// Non-2xx responses are fetch failures.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*RawPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Message: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Message: "unexpected status"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	return &RawPage{URL: url, HTML: string(body)}, nil
}

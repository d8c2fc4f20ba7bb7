package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/layer-3/w3o/core"
	"github.com/layer-3/w3o/ports"
)

// maxListSize bounds the body read from a token list url
const maxListSize = 4 << 20

// HTTPSource fetches token lists published as a JSON array
type HTTPSource struct {
	client *http.Client
}

var _ ports.TokenSource = (*HTTPSource)(nil)

// NewHTTPSource creates a source using client, or a client with a 10s
// timeout when client is nil
func NewHTTPSource(client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{client: client}
}

// FetchTokens GETs url and decodes the token array it returns
func (s *HTTPSource) FetchTokens(ctx context.Context, url string) ([]core.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var tokens []core.Token
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}
	return tokens, nil
}

// StaticSource serves a fixed token list regardless of url
type StaticSource []core.Token

// FetchTokens returns a copy of the list
func (s StaticSource) FetchTokens(context.Context, string) ([]core.Token, error) {
	return append([]core.Token(nil), s...), nil
}

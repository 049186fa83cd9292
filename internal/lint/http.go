package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPProvider implements Provider against a remote analysis service
// speaking a simple JSON check protocol.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
}

// NewHTTPProvider creates a provider for the service at baseURL.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type checkRequest struct {
	Text  string `json:"text"`
	Scope string `json:"scope,omitempty"`
}

type checkResponse struct {
	Findings []Finding `json:"findings"`
}

// Analyze posts the text to the service's /v1/check endpoint and decodes
// the returned findings.
func (p *HTTPProvider) Analyze(ctx context.Context, text, scope string) ([]Finding, error) {
	body, err := json.Marshal(checkRequest{Text: text, Scope: scope})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/check", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, string(data))
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}

	return out.Findings, nil
}

package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPClient talks to the judge service over its REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type imageRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type textRequest struct {
	Text       string `json:"text"`
	HiddenWord string `json:"hiddenWord,omitempty"`
}

type sequenceRequest struct {
	ImagesBase64 []string `json:"imagesBase64"`
}

func (c *HTTPClient) GuessFromImage(ctx context.Context, imageBase64 string) (*GuessResponse, error) {
	var resp GuessResponse
	if err := c.post(ctx, "/v1/guess/image", imageRequest{ImageBase64: imageBase64}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GuessFromText(ctx context.Context, text, hiddenWord string) (*GuessResponse, error) {
	var resp GuessResponse
	if err := c.post(ctx, "/v1/guess/text", textRequest{Text: text, HiddenWord: hiddenWord}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GuessFromSequence(ctx context.Context, imagesBase64 []string) (*SituationResponse, error) {
	var resp SituationResponse
	if err := c.post(ctx, "/v1/guess/sequence", sequenceRequest{ImagesBase64: imagesBase64}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode judge response: %w", err)
	}
	return nil
}

// Package content is the client for the managed content-generation and
// moderation service. Calls may be slow or fail; no retry is owned here,
// callers fail soft.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/talentsync/interviewd/internal/model"
)

// Service is the narrow collaborator contract.
type Service interface {
	Describe(ctx context.Context, image string) (string, error)
	Transcribe(ctx context.Context, audio string) (string, error)
	Moderate(ctx context.Context, text string) (bool, error)
}

// Client talks to the content service over HTTP JSON.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Describe returns a natural-language description of a webcam frame.
func (c *Client) Describe(ctx context.Context, image string) (string, error) {
	var out struct {
		Description string `json:"description"`
	}
	if err := c.post(ctx, "/v1/describe", map[string]string{"image": image}, &out); err != nil {
		return "", err
	}
	return out.Description, nil
}

// Transcribe returns the text of an audio fragment.
func (c *Client) Transcribe(ctx context.Context, audio string) (string, error) {
	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := c.post(ctx, "/v1/transcribe", map[string]string{"audio": audio}, &out); err != nil {
		return "", err
	}
	return out.Transcript, nil
}

// Moderate reports whether the text was flagged.
func (c *Client) Moderate(ctx context.Context, text string) (bool, error) {
	var out struct {
		Flagged bool `json:"flagged"`
	}
	if err := c.post(ctx, "/v1/moderate", map[string]string{"input": text}, &out); err != nil {
		return false, err
	}
	return out.Flagged, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: content service: %v", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: content service returned %d", model.ErrTransport, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", model.ErrTransport, err)
	}
	return nil
}

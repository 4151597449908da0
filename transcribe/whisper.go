// Package transcribe sends encoded audio to the OpenAI transcription API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1/audio/transcriptions"

const defaultModel = "whisper-1"

// ErrNoAPIKey is returned when the client is constructed without a key.
var ErrNoAPIKey = errors.New("transcription API key required")

// Client calls the Whisper transcription endpoint with an in-memory WAV
// buffer. It holds no audio state; the caller owns the buffer and the
// generation token that fences the response.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

// Config holds client configuration.
type Config struct {
	APIKey  string
	BaseURL string // optional, defaults to the OpenAI endpoint
	Model   string // optional, defaults to whisper-1
}

// NewClient creates a transcription client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Transcribe uploads WAV-encoded audio and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return apiResp.Text, nil
}

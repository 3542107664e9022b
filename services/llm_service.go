package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// GenerateOptions bounds a single text-generation call
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
}

// TextGenerator is the narrow capability contract the matching engine has
// with its generative backend: prompt in, text out, or failure. Nothing
// provider-specific leaks past this interface, so the backend can be swapped.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// LLMService talks to an OpenAI-compatible chat-completions endpoint
type LLMService struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// NewLLMServiceFromEnv builds the LLM client from environment configuration.
// A missing API key is a deployment error, not a data error, so it fails
// fast here instead of silently no-opping later.
func NewLLMServiceFromEnv() (*LLMService, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		return nil, errors.New("LLM_API_KEY is not set")
	}

	baseURL := os.Getenv("LLM_API_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &LLMService{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// GenerateText sends a single-prompt completion request and returns the text
func (s *LLMService) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 300
	}

	requestBody := map[string]interface{}{
		"model": s.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream":      false,
		"max_tokens":  opts.MaxTokens,
		"temperature": opts.Temperature,
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [LLM] API error (status %d): %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("generation API error (status %d)", resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResponse.Choices) == 0 || apiResponse.Choices[0].Message.Content == "" {
		return "", errors.New("no text produced by generation backend")
	}

	return apiResponse.Choices[0].Message.Content, nil
}

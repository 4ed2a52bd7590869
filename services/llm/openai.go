// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/Harborview/services/advisor/datatypes"
)

// =============================================================================
// OpenAI-Compatible Wire Types
// =============================================================================

const defaultOpenAIBaseURL = "https://api.openai.com/v1/chat/completions"

type openaiRequest struct {
	Model            string          `json:"model"`
	Messages         []openaiMessage `json:"messages"`
	Temperature      *float64        `json:"temperature,omitempty"`
	MaxTokens        *int            `json:"max_completion_tokens,omitempty"`
	FrequencyPenalty *float64        `json:"frequency_penalty,omitempty"`
	Stop             []string        `json:"stop,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Choices []openaiChoice `json:"choices"`
	Error   *openaiError   `json:"error,omitempty"`
}

type openaiChoice struct {
	Index        int           `json:"index"`
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// =============================================================================
// Client Implementation
// =============================================================================

// OpenAIClient implements Client against any OpenAI-compatible chat
// completions endpoint using raw net/http, no provider SDK.
//
// A token-bucket rate limiter guards the upstream: the advisor fans
// sessions in, the provider meters us out, and hitting the provider's 429s
// costs more latency than pacing ourselves.
//
// Thread Safety: Safe for concurrent use.
type OpenAIClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	model      string
	baseURL    string
}

// NewOpenAIClient creates a client from the environment.
//
// Reads LLM_API_KEY, LLM_MODEL, and LLM_BASE_URL. Defaults to gpt-4o-mini
// against the OpenAI endpoint when model/URL are unset.
//
// Outputs:
//   - *OpenAIClient: The configured client.
//   - error: Non-nil if LLM_API_KEY is missing; callers treat that as
//     "generative stage not configured", not a startup failure.
func NewOpenAIClient(requestsPerSecond float64) (*OpenAIClient, error) {
	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llm: API key is missing (LLM_API_KEY)")
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("LLM_MODEL not set, defaulting to gpt-4o-mini")
	}
	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	slog.Info("Initializing generative client", "model", model)
	return NewOpenAIClientWithConfig(apiKey, model, baseURL, requestsPerSecond), nil
}

// NewOpenAIClientWithConfig creates a client with explicit configuration.
// Useful for tests with httptest servers. requestsPerSecond <= 0 disables
// the rate limiter.
func NewOpenAIClientWithConfig(apiKey, model, baseURL string, requestsPerSecond float64) *OpenAIClient {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		limiter:    limiter,
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// Name implements Client.
func (o *OpenAIClient) Name() string {
	return "openai:" + o.model
}

// Complete implements Client.
//
// The caller's ctx deadline bounds the whole call including the limiter
// wait; a canceled ctx returns promptly with ctx.Err() wrapped.
func (o *OpenAIClient) Complete(ctx context.Context, systemPrompt string, history []datatypes.Message, query string, params GenerationParams) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("llm: rate limiter wait: %w", err)
		}
	}

	messages := make([]openaiMessage, 0, len(history)+2)
	messages = append(messages, openaiMessage{Role: "system", Content: systemPrompt})
	for _, msg := range history {
		role := msg.Role
		switch role {
		case "system", "user", "assistant":
			// valid roles, keep as-is
		default:
			slog.Warn("llm: unknown message role, mapping to user",
				slog.String("unknown_role", role),
			)
			role = "user"
		}
		messages = append(messages, openaiMessage{Role: role, Content: msg.Content})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: query})

	reqPayload := openaiRequest{
		Model:    o.model,
		Messages: messages,
	}
	if params.Temperature >= 0 {
		t := params.Temperature
		reqPayload.Temperature = &t
	}
	if params.MaxTokens > 0 {
		mt := params.MaxTokens
		reqPayload.MaxTokens = &mt
	}
	if params.RepeatPenalty > 0 {
		// OpenAI expresses repetition discouragement as frequency_penalty
		// around 0; llama-style backends use repeat_penalty around 1.
		fp := params.RepeatPenalty - 1.0
		reqPayload.FrequencyPenalty = &fp
	}
	if len(params.Stop) > 0 {
		reqPayload.Stop = params.Stop
	}

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("llm: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("llm: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	slog.Debug("Sending completion request",
		slog.String("model", o.model),
		slog.Int("messages", len(messages)),
	)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: API returned status %d: %s", resp.StatusCode, SafeLogString(string(bodyBytes)))
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("llm: parsing response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("llm: API error: %s - %s", apiResp.Error.Type, SafeLogString(apiResp.Error.Message))
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("llm: returned no choices")
	}

	text := apiResp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("llm: returned empty completion")
	}

	slog.Debug("Received completion",
		slog.String("finish_reason", apiResp.Choices[0].FinishReason),
		slog.Int("response_len", len(text)),
	)
	return text, nil
}

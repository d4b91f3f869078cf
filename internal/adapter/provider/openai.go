package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/model"
)

// openAIStrategy speaks the OpenAI chat-completions dialect, which OpenRouter,
// Groq and Mistral also implement. keepPrefix controls whether the catalog
// model ID is sent verbatim (OpenRouter routes on the full "vendor/model"
// form) or with the provider prefix stripped.
type openAIStrategy struct {
	baseURL    string
	keepPrefix bool
}

type openAIRequest struct {
	Model            string        `json:"model"`
	Messages         []ChatMessage `json:"messages"`
	Temperature      float64       `json:"temperature,omitempty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	TopP             float64       `json:"top_p,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (s *openAIStrategy) generate(ctx context.Context, client *http.Client, m *model.AIModel, msgs []ChatMessage, settings conversation.Settings, apiKey string) (*Result, error) {
	wireModel := m.ID
	if !s.keepPrefix {
		wireModel = strings.TrimPrefix(m.ID, string(m.Provider)+"/")
	}

	body, err := json.Marshal(openAIRequest{
		Model:            wireModel,
		Messages:         msgs,
		Temperature:      settings.Temperature,
		MaxTokens:        settings.MaxTokens,
		TopP:             settings.TopP,
		FrequencyPenalty: settings.FrequencyPenalty,
		PresencePenalty:  settings.PresencePenalty,
		Stop:             settings.StopSequences,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, classifyStatus(resp.StatusCode, string(data))
	}

	var out openAIResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, &RequestError{Code: "empty_response", Message: "provider returned no choices"}
	}

	return &Result{
		Content: out.Choices[0].Message.Content,
		Usage: model.TokenUsage{
			Prompt:     out.Usage.PromptTokens,
			Completion: out.Usage.CompletionTokens,
			Total:      out.Usage.TotalTokens,
		},
		FinishReason: out.Choices[0].FinishReason,
	}, nil
}

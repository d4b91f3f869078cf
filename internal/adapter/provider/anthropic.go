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

const anthropicVersion = "2023-06-01"

// anthropicStrategy speaks the Anthropic Messages API. The system prompt is
// a top-level field rather than a message, max_tokens is mandatory, and the
// credential travels in the x-api-key header.
type anthropicStrategy struct {
	baseURL string
}

type anthropicRequest struct {
	Model         string        `json:"model"`
	MaxTokens     int           `json:"max_tokens"`
	System        string        `json:"system,omitempty"`
	Messages      []ChatMessage `json:"messages"`
	Temperature   float64       `json:"temperature,omitempty"`
	TopP          float64       `json:"top_p,omitempty"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (s *anthropicStrategy) generate(ctx context.Context, client *http.Client, m *model.AIModel, msgs []ChatMessage, settings conversation.Settings, apiKey string) (*Result, error) {
	reqBody := anthropicRequest{
		Model:         strings.TrimPrefix(m.ID, "anthropic/"),
		MaxTokens:     settings.MaxTokens,
		Temperature:   settings.Temperature,
		TopP:          settings.TopP,
		StopSequences: settings.StopSequences,
	}
	if reqBody.MaxTokens <= 0 {
		reqBody.MaxTokens = m.MaxOutputTokens
	}
	for _, msg := range msgs {
		if msg.Role == conversation.RoleSystem {
			// Multiple system entries (conversation prompt + memories block)
			// join into the single top-level system string.
			if reqBody.System != "" {
				reqBody.System += "\n\n"
			}
			reqBody.System += msg.Content
			continue
		}
		reqBody.Messages = append(reqBody.Messages, msg)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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

	var out anthropicResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &RequestError{Code: "empty_response", Message: "provider returned no text content"}
	}

	finish := out.StopReason
	if finish == "end_turn" {
		finish = "stop"
	}

	usage := model.TokenUsage{
		Prompt:     out.Usage.InputTokens,
		Completion: out.Usage.OutputTokens,
		Total:      out.Usage.InputTokens + out.Usage.OutputTokens,
	}

	return &Result{
		Content:      text.String(),
		Usage:        usage,
		FinishReason: finish,
	}, nil
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/model"
)

// googleStrategy speaks the Gemini generateContent API. The credential is
// passed as a query parameter, assistant turns are relabelled "model", and
// the system prompt travels in a dedicated systemInstruction field.
type googleStrategy struct {
	baseURL string
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents          []googleContent `json:"contents"`
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64  `json:"temperature,omitempty"`
		MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
		TopP            float64  `json:"topP,omitempty"`
		StopSequences   []string `json:"stopSequences,omitempty"`
	} `json:"generationConfig"`
}

type googleResponse struct {
	Candidates []struct {
		Content      googleContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (s *googleStrategy) generate(ctx context.Context, client *http.Client, m *model.AIModel, msgs []ChatMessage, settings conversation.Settings, apiKey string) (*Result, error) {
	var reqBody googleRequest
	for _, msg := range msgs {
		switch msg.Role {
		case conversation.RoleSystem:
			// Multiple system entries (conversation prompt + memories block)
			// accumulate as separate parts of one instruction.
			if reqBody.SystemInstruction == nil {
				reqBody.SystemInstruction = &googleContent{}
			}
			reqBody.SystemInstruction.Parts = append(reqBody.SystemInstruction.Parts, googlePart{Text: msg.Content})
		case conversation.RoleAssistant:
			reqBody.Contents = append(reqBody.Contents, googleContent{
				Role: "model", Parts: []googlePart{{Text: msg.Content}},
			})
		default:
			reqBody.Contents = append(reqBody.Contents, googleContent{
				Role: "user", Parts: []googlePart{{Text: msg.Content}},
			})
		}
	}
	reqBody.GenerationConfig.Temperature = settings.Temperature
	reqBody.GenerationConfig.MaxOutputTokens = settings.MaxTokens
	reqBody.GenerationConfig.TopP = settings.TopP
	reqBody.GenerationConfig.StopSequences = settings.StopSequences

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	wireModel := strings.TrimPrefix(m.ID, "google/")
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		s.baseURL, wireModel, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var out googleResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, &RequestError{Code: "empty_response", Message: "provider returned no candidates"}
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return &Result{
		Content: text.String(),
		Usage: model.TokenUsage{
			Prompt:     out.UsageMetadata.PromptTokenCount,
			Completion: out.UsageMetadata.CandidatesTokenCount,
			Total:      out.UsageMetadata.TotalTokenCount,
		},
		FinishReason: strings.ToLower(out.Candidates[0].FinishReason),
	}, nil
}

// Package model provides the static catalog of AI models and their providers.
package model

// Provider identifies a third-party LLM API vendor.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderGoogle     Provider = "google"
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenAI     Provider = "openai"
	ProviderGroq       Provider = "groq"
	ProviderMistral    Provider = "mistral"
)

// Capabilities describes what a model can do.
type Capabilities struct {
	Chat            bool `json:"chat"`
	Vision          bool `json:"vision"`
	FunctionCalling bool `json:"function_calling"`
	Streaming       bool `json:"streaming"`
}

// AIModel describes one entry in the model catalog.
type AIModel struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Provider        Provider     `json:"provider"`
	Description     string       `json:"description,omitempty"`
	ContextWindow   int          `json:"context_window"`
	MaxOutputTokens int          `json:"max_output_tokens"`
	InputPricing    float64      `json:"input_pricing"`  // USD per 1M input tokens
	OutputPricing   float64      `json:"output_pricing"` // USD per 1M output tokens
	Capabilities    Capabilities `json:"capabilities"`
	IsFree          bool         `json:"is_free"`
}

// TokenUsage is the normalized token accounting shape shared across providers.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// EstimateCost returns the USD cost of usage under the model's pricing.
func EstimateCost(m *AIModel, usage TokenUsage) float64 {
	if m == nil || m.IsFree {
		return 0
	}
	return float64(usage.Prompt)*m.InputPricing/1e6 +
		float64(usage.Completion)*m.OutputPricing/1e6
}

package model

import "sort"

// catalog is the built-in model registry. Entries are static: pricing and
// context windows are refreshed by editing this table, not at runtime.
var catalog = []AIModel{
	{
		ID: "meta-llama/llama-3.2-3b-instruct:free", Name: "Llama 3.2 3B Instruct",
		Provider: ProviderOpenRouter, Description: "Small free instruct model via OpenRouter",
		ContextWindow: 131072, MaxOutputTokens: 4096,
		Capabilities: Capabilities{Chat: true, Streaming: true}, IsFree: true,
	},
	{
		ID: "openrouter/auto", Name: "OpenRouter Auto",
		Provider: ProviderOpenRouter, Description: "Routes to the best available model",
		ContextWindow: 200000, MaxOutputTokens: 8192,
		InputPricing: 2.0, OutputPricing: 6.0,
		Capabilities: Capabilities{Chat: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "google/gemini-2.0-flash", Name: "Gemini 2.0 Flash",
		Provider: ProviderGoogle, Description: "Fast multimodal Gemini model",
		ContextWindow: 1048576, MaxOutputTokens: 8192,
		InputPricing: 0.1, OutputPricing: 0.4,
		Capabilities: Capabilities{Chat: true, Vision: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "google/gemini-2.5-pro", Name: "Gemini 2.5 Pro",
		Provider: ProviderGoogle, Description: "Strongest Gemini reasoning model",
		ContextWindow: 1048576, MaxOutputTokens: 65536,
		InputPricing: 1.25, OutputPricing: 10.0,
		Capabilities: Capabilities{Chat: true, Vision: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "anthropic/claude-sonnet-4", Name: "Claude Sonnet 4",
		Provider: ProviderAnthropic, Description: "Balanced Claude model",
		ContextWindow: 200000, MaxOutputTokens: 64000,
		InputPricing: 3.0, OutputPricing: 15.0,
		Capabilities: Capabilities{Chat: true, Vision: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "openai/gpt-4o", Name: "GPT-4o",
		Provider: ProviderOpenAI, Description: "OpenAI flagship multimodal model",
		ContextWindow: 128000, MaxOutputTokens: 16384,
		InputPricing: 2.5, OutputPricing: 10.0,
		Capabilities: Capabilities{Chat: true, Vision: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "openai/gpt-4o-mini", Name: "GPT-4o mini",
		Provider: ProviderOpenAI, Description: "Small fast OpenAI model",
		ContextWindow: 128000, MaxOutputTokens: 16384,
		InputPricing: 0.15, OutputPricing: 0.6,
		Capabilities: Capabilities{Chat: true, Vision: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "groq/llama-3.3-70b-versatile", Name: "Llama 3.3 70B (Groq)",
		Provider: ProviderGroq, Description: "Llama 3.3 70B on Groq LPU inference",
		ContextWindow: 131072, MaxOutputTokens: 32768,
		InputPricing: 0.59, OutputPricing: 0.79,
		Capabilities: Capabilities{Chat: true, FunctionCalling: true, Streaming: true},
	},
	{
		ID: "mistral/mistral-large-latest", Name: "Mistral Large",
		Provider: ProviderMistral, Description: "Mistral's top reasoning model",
		ContextWindow: 131072, MaxOutputTokens: 8192,
		InputPricing: 2.0, OutputPricing: 6.0,
		Capabilities: Capabilities{Chat: true, FunctionCalling: true, Streaming: true},
	},
}

// Lookup returns the catalog entry for id, or nil when unknown.
func Lookup(id string) *AIModel {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i]
		}
	}
	return nil
}

// All returns a copy of the full catalog.
func All() []AIModel {
	out := make([]AIModel, len(catalog))
	copy(out, catalog)
	return out
}

// ByProvider returns all catalog entries for the given provider.
func ByProvider(p Provider) []AIModel {
	var out []AIModel
	for i := range catalog {
		if catalog[i].Provider == p {
			out = append(out, catalog[i])
		}
	}
	return out
}

// Providers returns the sorted set of providers present in the catalog.
func Providers() []Provider {
	seen := map[Provider]bool{}
	for i := range catalog {
		seen[catalog[i].Provider] = true
	}
	out := make([]Provider, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

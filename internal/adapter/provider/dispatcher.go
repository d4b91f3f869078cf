// Package provider dispatches assembled chat requests to upstream AI APIs.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/koushikch7/chatGPT/internal/domain"
	"github.com/koushikch7/chatGPT/internal/domain/conversation"
	"github.com/koushikch7/chatGPT/internal/domain/model"
	"github.com/koushikch7/chatGPT/internal/resilience"
)

// ChatMessage is a single role/content pair on the wire to a provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is the outcome of a successful generation.
type Result struct {
	Content      string
	Usage        model.TokenUsage
	FinishReason string
}

// strategy translates a generation request into one provider's wire format.
type strategy interface {
	generate(ctx context.Context, client *http.Client, m *model.AIModel, msgs []ChatMessage, settings conversation.Settings, apiKey string) (*Result, error)
}

// Options configures a Dispatcher.
type Options struct {
	// MaxConcurrent bounds in-flight provider calls across all conversations.
	MaxConcurrent int64
	// RequestTimeout is the per-call timeout.
	RequestTimeout time.Duration
	// BreakerMaxFailures and BreakerTimeout configure the per-provider circuit breakers.
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// Dispatcher routes generation requests to the strategy for the model's
// provider, guarded by a per-provider circuit breaker and a global
// concurrency limit. A request without a credential never reaches the
// network: it is answered with a deterministic demo response.
type Dispatcher struct {
	client     *http.Client
	strategies map[model.Provider]strategy
	breakers   map[model.Provider]*resilience.Breaker
	sem        *semaphore.Weighted
	log        *slog.Logger
}

// NewDispatcher creates a Dispatcher with strategies for every catalog provider.
func NewDispatcher(opts Options, log *slog.Logger) *Dispatcher {
	openAICompat := func(baseURL string, keepPrefix bool) strategy {
		return &openAIStrategy{baseURL: baseURL, keepPrefix: keepPrefix}
	}

	d := &Dispatcher{
		client: &http.Client{Timeout: opts.RequestTimeout},
		strategies: map[model.Provider]strategy{
			model.ProviderOpenRouter: openAICompat("https://openrouter.ai/api/v1", true),
			model.ProviderOpenAI:     openAICompat("https://api.openai.com/v1", false),
			model.ProviderGroq:       openAICompat("https://api.groq.com/openai/v1", false),
			model.ProviderMistral:    openAICompat("https://api.mistral.ai/v1", false),
			model.ProviderGoogle:     &googleStrategy{baseURL: "https://generativelanguage.googleapis.com/v1beta"},
			model.ProviderAnthropic:  &anthropicStrategy{baseURL: "https://api.anthropic.com"},
		},
		breakers: make(map[model.Provider]*resilience.Breaker),
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		log:      log,
	}

	for p := range d.strategies {
		d.breakers[p] = resilience.NewBreaker(opts.BreakerMaxFailures, opts.BreakerTimeout)
	}
	return d
}

// SetHTTPClient replaces the HTTP client. Used by tests to stub transports.
func (d *Dispatcher) SetHTTPClient(c *http.Client) {
	d.client = c
}

// SetBaseURL points one provider's strategy at a different endpoint.
// Used by tests against local servers.
func (d *Dispatcher) SetBaseURL(p model.Provider, baseURL string) {
	switch s := d.strategies[p].(type) {
	case *openAIStrategy:
		s.baseURL = baseURL
	case *googleStrategy:
		s.baseURL = baseURL
	case *anthropicStrategy:
		s.baseURL = baseURL
	}
}

// BreakerStates reports the circuit state per provider, for the health endpoint.
func (d *Dispatcher) BreakerStates() map[string]string {
	states := make(map[string]string, len(d.breakers))
	for p, b := range d.breakers {
		states[string(p)] = b.State()
	}
	return states
}

// Dispatch sends the assembled messages to the model's provider and returns
// the generated reply. An empty apiKey selects the demo path.
func (d *Dispatcher) Dispatch(ctx context.Context, modelID string, msgs []ChatMessage, settings conversation.Settings, apiKey string) (*Result, error) {
	m := model.Lookup(modelID)
	if m == nil {
		return nil, fmt.Errorf("model %s: %w", modelID, domain.ErrNotFound)
	}

	strat, ok := d.strategies[m.Provider]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", m.Provider, domain.ErrUnsupportedProvider)
	}

	if apiKey == "" {
		return demoResult(m, msgs), nil
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, wrapDispatchErr(ctx, err)
	}
	defer d.sem.Release(1)

	started := time.Now()
	var res *Result
	err := d.breakers[m.Provider].Execute(func() error {
		var callErr error
		res, callErr = strat.generate(ctx, d.client, m, msgs, settings, apiKey)
		return callErr
	})
	if err != nil {
		d.log.Warn("generation failed",
			"model", modelID,
			"provider", m.Provider,
			"elapsed", time.Since(started),
			"error", err)
		return nil, wrapDispatchErr(ctx, err)
	}

	d.log.Info("generation completed",
		"model", modelID,
		"provider", m.Provider,
		"elapsed", time.Since(started),
		"tokens", res.Usage.Total)
	return res, nil
}

// wrapDispatchErr maps context cancellation to domain.ErrCancelled and the
// open-circuit condition to a retryable RequestError.
func wrapDispatchErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return domain.ErrCancelled
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return &RequestError{
			Code:      "provider_unavailable",
			Message:   "the provider is temporarily unavailable",
			Retryable: true,
		}
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr
	}
	return &RequestError{
		Code:      "network_error",
		Message:   err.Error(),
		Retryable: true,
	}
}

// demoEchoLimit caps how much of the user's message the demo reply quotes.
const demoEchoLimit = 100

// demoResult produces the placeholder reply served when no credential is
// configured for the model's provider. It makes no network call and reports
// zero token usage.
func demoResult(m *model.AIModel, msgs []ChatMessage) *Result {
	echo := ""
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			echo = msgs[i].Content
			break
		}
	}
	if runes := []rune(echo); len(runes) > demoEchoLimit {
		echo = string(runes[:demoEchoLimit]) + "..."
	}

	content := fmt.Sprintf(
		"This is a demo response from %s. You said: %q. Add a %s API key in Settings to receive real completions.",
		m.Name, echo, m.Provider)
	return &Result{
		Content:      content,
		FinishReason: "stop",
	}
}

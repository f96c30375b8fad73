// Package llm talks to generative text completion endpoints that can be
// constrained to emit JSON matching a schema.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"movie-discovery-sinema/internal/config"
)

// ErrMissingAPIKey is returned before any request when no credential is
// configured.
var ErrMissingAPIKey = errors.New("llm: api key not configured")

// Providers accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// CompletionRequest is a single prompt with an output schema.
type CompletionRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string
	Schema            *Schema
}

// Completer returns the raw response text for a request.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// New builds the completer for cfg.Provider.
func New(cfg config.AIConfig) (Completer, error) {
	httpClient := &http.Client{}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		return NewGeminiClient(cfg.APIKey, cfg.BaseURL, httpClient), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, httpClient), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// HTTPError is a non-2xx response from the completion endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

package suggest

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"newtab/llm"
)

// OpenAIBackend talks to the OpenAI chat completions API, or a compatible
// server at baseURL.
func OpenAIBackend(baseURL string, timeout time.Duration, log zerolog.Logger) Backend {
	return Backend{
		Name: "openai",
		New: func(apiKey string) llm.Provider {
			return llm.NewOpenAI(llm.OpenAIOptions{APIKey: apiKey, BaseURL: baseURL, Timeout: timeout}, log)
		},
	}
}

// AnthropicBackend talks to the Anthropic messages API.
func AnthropicBackend(baseURL string, timeout time.Duration) Backend {
	return Backend{
		Name: "anthropic",
		New: func(apiKey string) llm.Provider {
			return llm.NewClaudeAPI(apiKey).WithBaseURL(baseURL).WithTimeout(timeout)
		},
	}
}

// BackendByName returns the backend for a configured provider name.
func BackendByName(name, baseURL string, timeout time.Duration, log zerolog.Logger) (Backend, error) {
	switch name {
	case "", "openai":
		return OpenAIBackend(baseURL, timeout, log), nil
	case "anthropic":
		return AnthropicBackend(baseURL, timeout), nil
	}
	return Backend{}, fmt.Errorf("unknown completion provider %q", name)
}

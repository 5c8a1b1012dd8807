package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
)

// DefaultOpenAIModel is used when a request doesn't name a model.
const DefaultOpenAIModel = "gpt-4-turbo"

// OpenAI implements Provider with the OpenAI chat completions API.
type OpenAI struct {
	apiKey string
	client openai.Client
	log    zerolog.Logger
}

// OpenAIOptions configures an OpenAI provider.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string        // empty = api.openai.com; set for proxies or compatible servers
	Timeout time.Duration // per request; zero = no extra timeout
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(opts OpenAIOptions, log zerolog.Logger) *OpenAI {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// Suggestions are superseded within a keystroke; retrying is pointless
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	log = log.With().Str("provider", "openai").Logger()
	reqOpts = append(reqOpts, option.WithMiddleware(traceMiddleware(log)))

	return &OpenAI{
		apiKey: opts.APIKey,
		client: openai.NewClient(reqOpts...),
		log:    log,
	}
}

func traceMiddleware(log zerolog.Logger) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		start := time.Now()
		resp, err := next(req)
		evt := log.Trace().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", time.Since(start))
		if resp != nil {
			evt = evt.Int("status", resp.StatusCode)
		}
		evt.Err(err).Msg("OpenAI request")
		return resp, err
	}
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return "openai"
}

// Available checks if an API key is configured.
func (o *OpenAI) Available() bool {
	return o.apiKey != ""
}

// Complete sends a chat completion request and returns the first choice.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	model := req.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

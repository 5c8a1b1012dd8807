package suggest

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"newtab/llm"
	"newtab/settings"
)

const (
	// MinQueryLength is the shortest query worth asking the model about.
	MinQueryLength = 3

	// Temperature is kept low so the same query gives stable suggestions.
	Temperature = 0.1
)

const promptTemplate = `You are a search engine completion system. Your job is to give at most 5 completions for the incoming search queries.

Here are some rules:
1. If the search query is a question, add the answer to the question first. Answers must at least be 50 letters.
2. You can recommend websites directly. please prefix your completion with "url:" if you want to recommend a website. Only use links if you are 100% sure that the link is relevant and valid.
3. You can reword the search query. please prefix your completion with "reword:" if you want to reword the search query.
4. Completions cannot answer the question, they can only autocomplete the search query.
5. Every result needs to be on a new line with no formatting such as numbers or bullets. In no exception can you use a new line anywhere else.

complete: `

// Prompt builds the completion prompt for a query. The query is appended
// verbatim.
func Prompt(query string) string {
	return promptTemplate + query
}

// Backend builds the model provider for a credential.
type Backend struct {
	Name string // settings key the credential is read from, e.g. "openai"
	New  func(apiKey string) llm.Provider
}

// Fetcher asks a language model for suggestions. It is safe for concurrent
// use; the provider is rebuilt only when the credential changes.
type Fetcher struct {
	backend Backend
	model   string
	log     zerolog.Logger

	mu     sync.Mutex
	key    string
	client *llm.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithModel sets the model name sent with each request.
func WithModel(model string) Option {
	return func(f *Fetcher) { f.model = model }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// NewFetcher creates a fetcher over the given backend.
func NewFetcher(backend Backend, opts ...Option) *Fetcher {
	f := &Fetcher{
		backend: backend,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With().Str("component", "suggest").Str("backend", backend.Name).Logger()
	return f
}

// Fetch returns suggestions for query. It returns nothing, without any
// network traffic, when no credential is configured or the query is
// shorter than MinQueryLength.
//
// Cancelling ctx aborts the request; a reply that arrives after
// cancellation is dropped and ctx.Err() returned. Any other failure is
// returned as an error; callers treat it as "no suggestions".
func (f *Fetcher) Fetch(ctx context.Context, query string, snap settings.Snapshot) ([]Suggestion, error) {
	key := snap.Key(f.backend.Name)
	if key == "" || utf8.RuneCountInString(query) < MinQueryLength {
		return nil, nil
	}

	log := f.log.With().Str("request_id", uuid.NewString()).Logger()
	start := time.Now()

	body, err := f.clientFor(key).Complete(ctx, llm.Request{
		Model:       f.model,
		Messages:    []llm.Message{llm.UserMessage(Prompt(query))},
		Temperature: Temperature,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Trace().Dur("duration", time.Since(start)).Msg("Suggestion request cancelled")
		return nil, ctxErr
	}
	if err != nil {
		return nil, fmt.Errorf("fetching suggestions: %w", err)
	}

	suggestions := Parse(body, query)
	log.Debug().
		Int("count", len(suggestions)).
		Dur("duration", time.Since(start)).
		Msg("Fetched suggestions")
	return suggestions, nil
}

func (f *Fetcher) clientFor(key string) *llm.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client == nil || f.key != key {
		f.key = key
		f.client = llm.NewClient(f.backend.New(key))
	}
	return f.client
}

// Package llm provides an abstraction layer for language model providers.
package llm

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no LLM provider is configured or available.
var ErrNoProvider = errors.New("no LLM provider available")

// Message represents a single message in a conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Request is a single completion request.
type Request struct {
	Model       string // empty = provider default
	Messages    []Message
	Temperature float64 // zero = provider default
}

// Provider defines the interface for language model backends.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Available checks if this provider is ready to use.
	Available() bool

	// Complete sends the request and returns the text of the reply.
	// Cancelling ctx aborts the underlying HTTP request.
	Complete(ctx context.Context, req Request) (string, error)
}

// Client manages LLM providers and selects the first available one.
type Client struct {
	providers []Provider
}

// NewClient creates a new LLM client with the given providers.
// Providers are tried in order of preference.
func NewClient(providers ...Provider) *Client {
	return &Client{
		providers: providers,
	}
}

// Provider returns the currently active provider, or nil if none available.
func (c *Client) Provider() Provider {
	for _, p := range c.providers {
		if p != nil && p.Available() {
			return p
		}
	}
	return nil
}

// Available returns true if any provider is available.
func (c *Client) Available() bool {
	return c.Provider() != nil
}

// Complete sends a request to the best available provider.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	p := c.Provider()
	if p == nil {
		return "", ErrNoProvider
	}
	return p.Complete(ctx, req)
}

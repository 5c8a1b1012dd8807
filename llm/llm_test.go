package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name      string
	available bool
	reply     string
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) Available() bool { return f.available }
func (f *fakeProvider) Complete(context.Context, Request) (string, error) {
	return f.reply, nil
}

func TestClientSelection(t *testing.T) {
	off := &fakeProvider{name: "off"}
	a := &fakeProvider{name: "a", available: true, reply: "from a"}
	b := &fakeProvider{name: "b", available: true, reply: "from b"}

	c := NewClient(off, a, b)
	require.True(t, c.Available())
	assert.Equal(t, "a", c.Provider().Name())

	got, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "from a", got)
}

func TestClientNoProvider(t *testing.T) {
	c := NewClient(&fakeProvider{name: "off"})
	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestClaudeAPIComplete(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("x-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"hello "},{"type":"text","text":"world"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeAPI("key-123").WithBaseURL(srv.URL)
	reply, err := c.Complete(context.Background(), Request{
		Messages:    []Message{UserMessage("hi")},
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", reply)
	assert.Equal(t, defaultClaudeModel, got.Model)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.1, *got.Temperature, 1e-9)
	assert.Equal(t, []apiMessage{{Role: "user", Content: "hi"}}, got.Messages)
	assert.Equal(t, maxTokens, got.MaxTokens)
}

func TestClaudeAPITimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClaudeAPI("key").WithBaseURL(srv.URL).WithTimeout(50*time.Millisecond).
		Complete(context.Background(), Request{Messages: []Message{UserMessage("hi")}})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClaudeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := NewClaudeAPI("nope").WithBaseURL(srv.URL).Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestOpenAIComplete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4-turbo",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "line one\nline two"}}]
		}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, zerolog.Nop())
	require.True(t, o.Available())

	reply, err := o.Complete(context.Background(), Request{
		Messages:    []Message{UserMessage("complete: golang")},
		Temperature: 0.1,
	})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", reply)

	assert.Equal(t, DefaultOpenAIModel, got["model"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-9)
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	o := NewOpenAI(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, zerolog.Nop())
	_, err := o.Complete(context.Background(), Request{Messages: []Message{UserMessage("x")}})
	assert.Error(t, err)
}

func TestOpenAIUnavailableWithoutKey(t *testing.T) {
	assert.False(t, NewOpenAI(OpenAIOptions{}, zerolog.Nop()).Available())
	assert.False(t, NewClaudeAPI("").Available())
}

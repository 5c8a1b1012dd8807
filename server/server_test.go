package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newtab/omnibox"
	"newtab/settings"
	"newtab/suggest"
)

type fakeSuggester struct {
	err error
}

func (f fakeSuggester) Fetch(_ context.Context, query string, _ settings.Snapshot) ([]suggest.Suggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len([]rune(query)) < suggest.MinQueryLength {
		return nil, nil
	}
	return []suggest.Suggestion{{Kind: suggest.Completion, Content: query + " tutorial"}}, nil
}

func newTestServer(t *testing.T, sg fakeSuggester) (*httptest.Server, *settings.Manager) {
	t.Helper()
	mgr, err := settings.Load(context.Background(), settings.NewMemoryStorage(), zerolog.Nop())
	require.NoError(t, err)

	s := New(Options{
		Registry:  omnibox.Default(),
		Settings:  mgr,
		Suggester: sg,
		Logger:    zerolog.Nop(),
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, mgr
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestGoRedirects(t *testing.T) {
	srv, _ := newTestServer(t, fakeSuggester{})
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	tests := []struct {
		q    string
		want string
	}{
		{q: "gh+torvalds/linux", want: "http://github.com/torvalds/linux"},
		{q: "2", want: "https://bsky.app"},
		{q: "no+match", want: "https://www.google.com/search?q=no+match"},
		{q: "", want: "https://www.google.com/search?q="},
	}
	for _, tt := range tests {
		resp, err := client.Get(srv.URL + "/go?q=" + tt.q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, tt.want, resp.Header.Get("Location"), "q=%s", tt.q)
	}
}

func TestMode(t *testing.T) {
	srv, _ := newTestServer(t, fakeSuggester{})

	var got ModeResponse
	getJSON(t, srv.URL+"/api/mode?q=yt+cats", &got)
	assert.Equal(t, ModeResponse{
		Mode: omnibox.ProviderYouTube,
		Icon: omnibox.IconYouTube,
		URL:  "https://www.youtube.com/results?search_query=cats",
	}, got)

	got = ModeResponse{}
	getJSON(t, srv.URL+"/api/mode?q=hello", &got)
	assert.Equal(t, omnibox.Free, got.Mode)
	assert.Empty(t, got.Icon)
}

func TestSuggest(t *testing.T) {
	srv, _ := newTestServer(t, fakeSuggester{})

	var got struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	getJSON(t, srv.URL+"/api/suggest?q=golang", &got)
	assert.Equal(t, []suggest.Suggestion{{Kind: suggest.Completion, Content: "golang tutorial"}}, got.Suggestions)

	got.Suggestions = nil
	getJSON(t, srv.URL+"/api/suggest?q=go", &got)
	assert.NotNil(t, got.Suggestions, "short queries get an empty list, not null")
	assert.Empty(t, got.Suggestions)
}

func TestSuggestErrorIsEmpty(t *testing.T) {
	srv, _ := newTestServer(t, fakeSuggester{err: errors.New("upstream 500")})

	var got struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	status := getJSON(t, srv.URL+"/api/suggest?q=golang", &got)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, got.Suggestions)
}

func TestPins(t *testing.T) {
	srv, mgr := newTestServer(t, fakeSuggester{})

	var list struct {
		Pins []PinView `json:"pins"`
	}
	getJSON(t, srv.URL+"/api/pins", &list)
	require.Len(t, list.Pins, 3)
	assert.Equal(t, PinView{Index: 1, Kind: "twitter", URL: "https://twitter.com", Icon: omnibox.IconTwitter}, list.Pins[0])

	resp, err := http.Post(srv.URL+"/api/pins", "application/json", strings.NewReader(`{"type":"reddit","url":"https://reddit.com/"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, mgr.Snapshot().Pins, 4)

	resp, err = http.Post(srv.URL+"/api/pins", "application/json", strings.NewReader(`{"type":"reddit"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/pins/1", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bluesky", mgr.Snapshot().Pins[0].Kind)

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/pins/9", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// readUntil reads server messages until one satisfies ok.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, ok func(ServerMessage) bool) ServerMessage {
	t.Helper()
	for {
		var msg ServerMessage
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		if ok(msg) {
			return msg
		}
	}
}

func TestWebsocketField(t *testing.T) {
	srv, _ := newTestServer(t, fakeSuggester{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MsgInput, Text: "gh abc"}))
	msg := readUntil(t, ctx, conn, func(m ServerMessage) bool { return m.Type == MsgState && m.Update != nil && m.Text == "gh abc" })
	assert.Equal(t, omnibox.Mode(omnibox.ProviderGitHub), msg.Mode)
	assert.Equal(t, omnibox.IconGitHub, msg.Icon)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MsgReset}))
	msg = readUntil(t, ctx, conn, func(m ServerMessage) bool { return m.Type == MsgState && m.Update != nil && m.Text == "" })
	assert.Equal(t, omnibox.Free, msg.Mode)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MsgInput, Text: "golang"}))
	msg = readUntil(t, ctx, conn, func(m ServerMessage) bool {
		return m.Type == MsgState && m.Update != nil && len(m.Suggestions) > 0
	})
	assert.Equal(t, "golang tutorial", msg.Suggestions[0].Content)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "bogus"}))
	msg = readUntil(t, ctx, conn, func(m ServerMessage) bool { return m.Type == MsgError })
	assert.Contains(t, msg.Error, "bogus")

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: MsgSubmit}))
	msg = readUntil(t, ctx, conn, func(m ServerMessage) bool { return m.Type == MsgNavigate })
	assert.Equal(t, "https://www.google.com/search?q=golang", msg.URL)

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestServeShutsDown(t *testing.T) {
	mgr, err := settings.Load(context.Background(), settings.NewMemoryStorage(), zerolog.Nop())
	require.NoError(t, err)
	s := New(Options{Registry: omnibox.Default(), Settings: mgr, Logger: zerolog.Nop()})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/pins")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

package omnibox

import (
	"testing"

	"newtab/settings"
)

func threePins() settings.Snapshot {
	return settings.Snapshot{
		Pins: []settings.Pin{
			{Kind: "twitter", URL: "https://twitter.com/"},
			{Kind: "bluesky", URL: "https://bsky.app/"},
			{Kind: "youtube", URL: "https://youtube.com/"},
		},
	}
}

func TestDetect(t *testing.T) {
	r := Default()
	snap := threePins()

	tests := []struct {
		name        string
		in          string
		wantID      string
		wantPayload string
		wantOK      bool
	}{
		{name: "github beats nothing", in: "gh torvalds/linux", wantID: ProviderGitHub, wantPayload: "torvalds/linux", wantOK: true},
		{name: "dot means link", in: "example.com", wantID: ProviderLink, wantPayload: "example.com", wantOK: true},
		{name: "protocol relative", in: "//intranet", wantID: ProviderLink, wantPayload: "//intranet", wantOK: true},
		{name: "link wins over github", in: "gh some.repo", wantID: ProviderLink, wantPayload: "gh some.repo", wantOK: true},
		{name: "localhost keeps colon", in: ":8080/admin", wantID: ProviderLocalhost, wantPayload: ":8080/admin", wantOK: true},
		{name: "youtube", in: "yt cats", wantID: ProviderYouTube, wantPayload: "cats", wantOK: true},
		{name: "pin in range", in: "2", wantID: ProviderPin, wantPayload: "2", wantOK: true},
		{name: "pin zero", in: "0", wantOK: false},
		{name: "pin out of range", in: "5", wantOK: false},
		{name: "perplexity", in: "ask why is the sky blue", wantID: ProviderAsk, wantPayload: "why is the sky blue", wantOK: true},
		{name: "chatgpt", in: "gpt write a haiku", wantID: ProviderChatGPT, wantPayload: "write a haiku", wantOK: true},
		{name: "claude", in: "cl explain monads", wantID: ProviderClaude, wantPayload: "explain monads", wantOK: true},
		{name: "prefix needs space", in: "gh", wantOK: false},
		{name: "plain text", in: "no match at all", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := r.Detect(tt.in, snap)
			if ok != tt.wantOK {
				t.Fatalf("Detect(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if d.Provider.ID != tt.wantID || d.Payload != tt.wantPayload {
				t.Fatalf("Detect(%q) = (%s, %q), want (%s, %q)", tt.in, d.Provider.ID, d.Payload, tt.wantID, tt.wantPayload)
			}
		})
	}
}

func TestCompose(t *testing.T) {
	r := Default()
	snap := threePins()

	tests := []struct {
		in   string
		want string
	}{
		{in: "example.com", want: "https:example.com"},
		{in: "//example.com/path", want: "https://example.com/path"},
		{in: "gh torvalds/linux", want: "http://github.com/torvalds/linux"},
		{in: ":3000", want: "http://localhost:3000"},
		{in: "yt cats", want: "https://www.youtube.com/results?search_query=cats"},
		{in: "yt lo-fi beats", want: "https://www.youtube.com/results?search_query=lo-fi+beats"},
		{in: "2", want: "https://bsky.app/"},
		{in: "5", want: "https://www.google.com/search?q=5"},
		{in: "ask what is go", want: "https://www.perplexity.ai/search/new?q=what+is+go"},
		{in: "gpt hi", want: "https://chat.openai.com/?q=hi"},
		{in: "cl a&b", want: "https://claude.ai/new?q=a%26b"},
		{in: "no match at all", want: "https://www.google.com/search?q=no+match+at+all"},
		{in: "", want: "https://www.google.com/search?q="},
	}

	for _, tt := range tests {
		if got := r.Compose(tt.in, snap); got != tt.want {
			t.Errorf("Compose(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComposeCustomFallback(t *testing.T) {
	r := Default().WithFallback("https://duckduckgo.com/?q=%s")
	if got := r.Compose("go generics", threePins()); got != "https://duckduckgo.com/?q=go+generics" {
		t.Fatalf("Compose = %q", got)
	}
	// The original registry is unchanged
	if got := Default().FallbackURL("x"); got != "https://www.google.com/search?q=x" {
		t.Fatalf("FallbackURL = %q", got)
	}
}

func TestNextStickyMode(t *testing.T) {
	r := Default()
	snap := threePins()

	mode := r.Next(Free, "gh abc", snap)
	if mode != ProviderGitHub {
		t.Fatalf("Next(Free, gh abc) = %q", mode)
	}

	// Still matching: stays locked even though "link" now also matches
	mode = r.Next(mode, "gh abc.def", snap)
	if mode != ProviderGitHub {
		t.Fatalf("locked github should survive a higher-priority match, got %q", mode)
	}

	// Breaking the match releases the lock without re-detecting
	mode = r.Next(mode, "gh", snap)
	if mode != Free {
		t.Fatalf("Next(github, gh) = %q, want Free", mode)
	}

	// Releasing never jumps straight to another provider on the same change
	if got := r.Next(ProviderGitHub, "yt cats", snap); got != Free {
		t.Fatalf("Next(github, yt cats) = %q, want Free", got)
	}

	// The following change detects again
	if got := r.Next(Free, "yt cats", snap); got != ProviderYouTube {
		t.Fatalf("Next(Free, yt cats) = %q, want youtube", got)
	}
}

func TestNextUnknownModeDetects(t *testing.T) {
	r := Default()
	if got := r.Next("gone", "yt cats", threePins()); got != ProviderYouTube {
		t.Fatalf("Next(gone, yt cats) = %q", got)
	}
}

func TestNextIsIdempotent(t *testing.T) {
	r := Default()
	snap := threePins()
	inputs := []struct {
		mode Mode
		text string
	}{
		{Free, "gh abc"},
		{ProviderGitHub, "gh"},
		{ProviderPin, "3"},
		{Free, "hello"},
	}
	for _, in := range inputs {
		a := r.Next(in.mode, in.text, snap)
		b := r.Next(in.mode, in.text, snap)
		if a != b {
			t.Fatalf("Next(%q, %q) not idempotent: %q then %q", in.mode, in.text, a, b)
		}
	}
}

func TestPinFollowsSnapshot(t *testing.T) {
	r := Default()
	snap := threePins()

	mode := r.Next(Free, "3", snap)
	if mode != ProviderPin {
		t.Fatalf("Next(Free, 3) = %q", mode)
	}

	snap.Pins = snap.Pins[:2]
	if got := r.Next(mode, "3", snap); got != Free {
		t.Fatalf("pin 3 should be released once only two pins remain, got %q", got)
	}
}

func TestIcon(t *testing.T) {
	r := Default()
	snap := threePins()

	tests := []struct {
		mode Mode
		text string
		want Icon
		ok   bool
	}{
		{mode: Free, text: "anything", ok: false},
		{mode: ProviderGitHub, text: "gh x", want: IconGitHub, ok: true},
		{mode: ProviderPin, text: "1", want: IconTwitter, ok: true},
		{mode: ProviderPin, text: "3", want: IconYouTube, ok: true},
		{mode: ProviderPin, text: "9", want: IconLink, ok: true},
		{mode: ProviderClaude, text: "cl hi", want: IconClaude, ok: true},
	}
	for _, tt := range tests {
		got, ok := r.Icon(tt.mode, tt.text, snap)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Icon(%q, %q) = (%q, %v), want (%q, %v)", tt.mode, tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPinIcon(t *testing.T) {
	if PinIcon("bluesky") != IconBluesky {
		t.Fatal("bluesky pin should use the bluesky icon")
	}
	if PinIcon("myspace") != IconLink {
		t.Fatal("unknown pin kinds should use the link icon")
	}
	if IconLink.Glyph() == "" || Icon("unknown").Glyph() != IconLink.Glyph() {
		t.Fatal("unknown icons should render the link glyph")
	}
}

func TestPinLinkOutOfRangePanics(t *testing.T) {
	p, _ := Default().Lookup(ProviderPin)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range pin")
		}
	}()
	p.Link("7", threePins())
}

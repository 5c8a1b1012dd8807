// Package omnibox classifies new-tab input into link providers and composes
// the URL to navigate to.
package omnibox

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"newtab/settings"
)

// Matcher reports whether a provider recognises the input text, returning
// the normalised payload the linker works on. Matchers must be pure.
type Matcher func(text string, snap settings.Snapshot) (payload string, ok bool)

// Linker turns a payload into the destination URL.
type Linker func(payload string, snap settings.Snapshot) string

// IconSelector picks the icon previewed while the provider's mode is locked.
type IconSelector func(payload string, snap settings.Snapshot) Icon

// Provider is a named rule that recognises a class of input and turns it
// into a navigable URL.
type Provider struct {
	ID    string
	Name  string
	Match Matcher
	Link  Linker
	Icon  IconSelector
}

// Provider ids, in priority order.
const (
	ProviderLink      = "link"
	ProviderGitHub    = "github"
	ProviderLocalhost = "localhost"
	ProviderYouTube   = "youtube"
	ProviderPin       = "pin"
	ProviderAsk       = "ask"
	ProviderChatGPT   = "chatgpt"
	ProviderClaude    = "claude"
)

// hasDot matches any text with a dot somewhere in it.
var hasDot = regexp.MustCompile(`(.*)[.](.*)$`)

// Providers returns the built-in providers. List order is priority order.
func Providers() []Provider {
	return []Provider{
		{
			ID:   ProviderLink,
			Name: "Direct Link",
			Match: func(text string, _ settings.Snapshot) (string, bool) {
				if strings.HasPrefix(text, "//") || hasDot.MatchString(text) {
					return text, true
				}
				return "", false
			},
			Link: func(payload string, _ settings.Snapshot) string { return "https:" + payload },
			Icon: fixedIcon(IconGlobe),
		},
		{
			ID:    ProviderGitHub,
			Name:  "GitHub",
			Match: prefixMatcher("gh "),
			Link:  func(payload string, _ settings.Snapshot) string { return "http://github.com/" + payload },
			Icon:  fixedIcon(IconGitHub),
		},
		{
			ID:   ProviderLocalhost,
			Name: "Localhost",
			Match: func(text string, _ settings.Snapshot) (string, bool) {
				if strings.HasPrefix(text, ":") {
					return text, true
				}
				return "", false
			},
			Link: func(payload string, _ settings.Snapshot) string { return "http://localhost" + payload },
			Icon: fixedIcon(IconNetwork),
		},
		{
			ID:    ProviderYouTube,
			Name:  "YouTube",
			Match: prefixMatcher("yt "),
			Link:  queryLinker("https://www.youtube.com/results?search_query=%s"),
			Icon:  fixedIcon(IconYouTube),
		},
		{
			ID:    ProviderPin,
			Name:  "Pinned",
			Match: matchPin,
			Link: func(payload string, snap settings.Snapshot) string {
				pin, ok := pinAt(payload, snap)
				if !ok {
					// The matcher bounds-checks against the same snapshot,
					// so reaching this is a programming error.
					panic(fmt.Sprintf("omnibox: pin %q out of range (%d pins)", payload, len(snap.Pins)))
				}
				return pin.URL
			},
			Icon: func(payload string, snap settings.Snapshot) Icon {
				pin, ok := pinAt(payload, snap)
				if !ok {
					return IconLink
				}
				return PinIcon(pin.Kind)
			},
		},
		{
			ID:    ProviderAsk,
			Name:  "Perplexity",
			Match: prefixMatcher("ask "),
			Link:  queryLinker("https://www.perplexity.ai/search/new?q=%s"),
			Icon:  fixedIcon(IconPerplexity),
		},
		{
			ID:    ProviderChatGPT,
			Name:  "ChatGPT",
			Match: prefixMatcher("gpt "),
			Link:  queryLinker("https://chat.openai.com/?q=%s"),
			Icon:  fixedIcon(IconOpenAI),
		},
		{
			ID:    ProviderClaude,
			Name:  "Claude",
			Match: prefixMatcher("cl "),
			Link:  queryLinker("https://claude.ai/new?q=%s"),
			Icon:  fixedIcon(IconClaude),
		},
	}
}

// prefixMatcher matches text starting with prefix and strips it.
func prefixMatcher(prefix string) Matcher {
	return func(text string, _ settings.Snapshot) (string, bool) {
		if strings.HasPrefix(text, prefix) {
			return text[len(prefix):], true
		}
		return "", false
	}
}

// queryLinker substitutes the escaped payload for %s in urlFmt.
func queryLinker(urlFmt string) Linker {
	return func(payload string, _ settings.Snapshot) string {
		return strings.Replace(urlFmt, "%s", url.QueryEscape(payload), 1)
	}
}

func fixedIcon(icon Icon) IconSelector {
	return func(string, settings.Snapshot) Icon { return icon }
}

func matchPin(text string, snap settings.Snapshot) (string, bool) {
	if _, ok := pinAt(text, snap); ok {
		return text, true
	}
	return "", false
}

// pinAt resolves a 1-based pin number against the snapshot's pin list.
func pinAt(text string, snap settings.Snapshot) (settings.Pin, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 || n > len(snap.Pins) {
		return settings.Pin{}, false
	}
	return snap.Pins[n-1], true
}

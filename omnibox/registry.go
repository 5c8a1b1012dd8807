package omnibox

import (
	"net/url"
	"slices"
	"strings"

	"newtab/settings"
)

// DefaultFallback is the web search used when no provider matches.
const DefaultFallback = "https://www.google.com/search?q=%s"

// Mode is the id of the provider locked for an input session. Free means
// no provider is locked.
type Mode string

// Free is the unlocked mode.
const Free Mode = ""

// Detection is the provider selected for a piece of text and the payload
// its matcher extracted.
type Detection struct {
	Provider Provider
	Payload  string
}

// URL runs the provider's linker on the payload.
func (d Detection) URL(snap settings.Snapshot) string {
	return d.Provider.Link(d.Payload, snap)
}

// Registry is an immutable, ordered set of providers.
type Registry struct {
	providers []Provider
	index     map[string]int
	fallback  string // URL format for the fallback search
}

// NewRegistry creates a registry over the given providers, in priority order.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: slices.Clone(providers),
		index:     make(map[string]int, len(providers)),
		fallback:  DefaultFallback,
	}
	for i, p := range r.providers {
		if _, dup := r.index[p.ID]; !dup {
			r.index[p.ID] = i
		}
	}
	return r
}

// Default returns a registry with the built-in providers.
func Default() *Registry {
	return NewRegistry(Providers()...)
}

// WithFallback returns a copy of the registry that falls back to urlFmt
// (with %s for the escaped query) when nothing matches.
func (r *Registry) WithFallback(urlFmt string) *Registry {
	cp := *r
	if urlFmt != "" {
		cp.fallback = urlFmt
	}
	return &cp
}

// Lookup finds a provider by id.
func (r *Registry) Lookup(id string) (Provider, bool) {
	i, ok := r.index[id]
	if !ok {
		return Provider{}, false
	}
	return r.providers[i], true
}

// Detect scans the providers in order and returns the first match.
func (r *Registry) Detect(text string, snap settings.Snapshot) (Detection, bool) {
	for _, p := range r.providers {
		if payload, ok := p.Match(text, snap); ok {
			return Detection{Provider: p, Payload: payload}, true
		}
	}
	return Detection{}, false
}

// Next computes the mode after the input changes to text.
//
// A locked mode is sticky: it is kept while its own matcher still accepts
// the text, even if a higher-priority provider would now match too. Once
// it rejects the text the mode becomes Free for this change; detection of a
// new provider waits for the next one.
func (r *Registry) Next(current Mode, text string, snap settings.Snapshot) Mode {
	if current != Free {
		if p, ok := r.Lookup(string(current)); ok {
			if _, ok := p.Match(text, snap); ok {
				return current
			}
			return Free
		}
	}
	if d, ok := r.Detect(text, snap); ok {
		return Mode(d.Provider.ID)
	}
	return Free
}

// Compose builds the destination URL for submitted text. It always scans
// from scratch, ignoring any locked mode, and falls back to web search.
func (r *Registry) Compose(text string, snap settings.Snapshot) string {
	if d, ok := r.Detect(text, snap); ok {
		return d.URL(snap)
	}
	return r.FallbackURL(text)
}

// FallbackURL returns the web search URL for text.
func (r *Registry) FallbackURL(text string) string {
	return strings.Replace(r.fallback, "%s", url.QueryEscape(text), 1)
}

// Icon returns the preview icon for a locked mode. Free has no preview.
func (r *Registry) Icon(mode Mode, text string, snap settings.Snapshot) (Icon, bool) {
	if mode == Free {
		return "", false
	}
	p, ok := r.Lookup(string(mode))
	if !ok {
		return "", false
	}
	payload, ok := p.Match(text, snap)
	if !ok {
		payload = text
	}
	return p.Icon(payload, snap), true
}

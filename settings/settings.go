// Package settings holds the user's new-tab settings: pinned shortcuts,
// completion API keys and background assets.
package settings

import "slices"

// Pin is a numbered shortcut shown on the new-tab page.
type Pin struct {
	Kind string `json:"type"` // icon kind, e.g. "twitter"
	URL  string `json:"url"`
}

// Keys holds API credentials. An empty key means "not configured".
type Keys struct {
	OpenAI    string `json:"openai,omitempty"`
	Anthropic string `json:"anthropic,omitempty"`
}

// AssetType is the kind of a background asset.
type AssetType string

const (
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
	AssetColor AssetType = "color"
)

// Asset is a saved background. Image and video assets carry a URL (or
// nothing, when the media lives in the local asset database); colour assets
// carry a hex value.
type Asset struct {
	ID   string    `json:"id"`
	Type AssetType `json:"type"`
	URL  string    `json:"url,omitempty"`
	Hex  string    `json:"hex,omitempty"`
}

// Background settings.
type Background struct {
	SelectedAssetID string  `json:"selectedAssetId"`
	SavedAssets     []Asset `json:"savedAssets"`
}

// Snapshot is a read-only copy of the settings at one point in time.
// Consumers re-read a fresh snapshot for every detection or fetch.
type Snapshot struct {
	Background Background `json:"background"`
	Keys       Keys       `json:"keys"`
	Pins       []Pin      `json:"pins"`
}

// Key returns the credential configured for a completion provider
// ("openai" or "anthropic"), or "" if there is none.
func (s Snapshot) Key(provider string) string {
	switch provider {
	case "openai":
		return s.Keys.OpenAI
	case "anthropic":
		return s.Keys.Anthropic
	}
	return ""
}

// CurrentBackground returns the selected background asset.
func (s Snapshot) CurrentBackground() (Asset, bool) {
	for _, a := range s.Background.SavedAssets {
		if a.ID == s.Background.SelectedAssetID {
			return a, true
		}
	}
	return Asset{}, false
}

func (s Snapshot) clone() Snapshot {
	s.Pins = slices.Clone(s.Pins)
	s.Background.SavedAssets = slices.Clone(s.Background.SavedAssets)
	return s
}

// Default returns the settings used on first run.
func Default() Snapshot {
	return Snapshot{
		Background: defaultBackground(),
		Pins:       defaultPins(),
	}
}

func defaultBackground() Background {
	return Background{
		SelectedAssetID: "preload",
		SavedAssets: []Asset{
			{
				ID:   "preload",
				Type: AssetImage,
				URL:  "https://i.pinimg.com/originals/b9/74/a4/b974a440d9d9742a41f2fb35db1247af.jpg",
			},
		},
	}
}

func defaultPins() []Pin {
	return []Pin{
		{Kind: "twitter", URL: "https://twitter.com"},
		{Kind: "bluesky", URL: "https://bsky.app"},
		{Kind: "youtube", URL: "https://youtube.com"},
	}
}

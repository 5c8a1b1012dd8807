package omnibox

// Icon is a handle for the symbol shown next to the input while a mode is
// locked. Rendering is up to the front end; Glyph gives a terminal fallback.
type Icon string

const (
	IconSearch     Icon = "search"
	IconGlobe      Icon = "globe"
	IconGitHub     Icon = "github"
	IconNetwork    Icon = "network"
	IconYouTube    Icon = "youtube"
	IconPerplexity Icon = "perplexity"
	IconOpenAI     Icon = "openai"
	IconClaude     Icon = "claude"
	IconTwitter    Icon = "twitter"
	IconBluesky    Icon = "bluesky"
	IconReddit     Icon = "reddit"
	IconMail       Icon = "mail"
	IconLink       Icon = "link"
)

var glyphs = map[Icon]string{
	IconSearch:     "⌕",
	IconGlobe:      "◍",
	IconGitHub:     "⎇",
	IconNetwork:    "⇄",
	IconYouTube:    "▶",
	IconPerplexity: "✳",
	IconOpenAI:     "◎",
	IconClaude:     "✺",
	IconTwitter:    "𝕏",
	IconBluesky:    "🦋",
	IconReddit:     "◉",
	IconMail:       "✉",
	IconLink:       "↗",
}

// Glyph returns a single-cell-ish terminal symbol for the icon.
func (i Icon) Glyph() string {
	if g, ok := glyphs[i]; ok {
		return g
	}
	return glyphs[IconLink]
}

// PinIcon maps a pin kind to its icon. Unknown kinds get a generic link.
func PinIcon(kind string) Icon {
	switch Icon(kind) {
	case IconTwitter, IconBluesky, IconYouTube, IconGitHub, IconReddit, IconMail:
		return Icon(kind)
	}
	return IconLink
}

// Package suggest fetches typed search suggestions from a language model
// and parses its line-oriented reply.
package suggest

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Kind is the type of a suggestion. Kinds are ordered: answers first, then
// links, rewordings and finally completions.
type Kind int

const (
	Answer Kind = iota
	Link
	Reword
	Completion
)

var kindNames = [...]string{
	Answer:     "answer",
	Link:       "link",
	Reword:     "reword",
	Completion: "completion",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name, so JSON carries "answer" etc.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown suggestion kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown suggestion kind %q", text)
}

// Suggestion is one ranked item shown under the search field.
type Suggestion struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
	URL     string `json:"url,omitempty"` // only for Link
}

const (
	linkPrefix   = "url:"
	rewordPrefix = "reword:"

	// answerLength is the length above which a line is treated as an answer.
	answerLength = 50
)

// Parse turns a model reply into sorted suggestions. Every non-blank line
// produces exactly one suggestion; anything unrecognised is a completion.
func Parse(body, query string) []Suggestion {
	var out []Suggestion
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, parseLine(line, query))
	}
	Sort(out)
	return out
}

func parseLine(line, query string) Suggestion {
	if content, ok := strings.CutPrefix(line, linkPrefix); ok {
		target, _, _ := strings.Cut(content, " ")
		if !strings.HasPrefix(target, "https://") {
			target = "https://" + target
		}
		return Suggestion{Kind: Link, Content: content, URL: target}
	}

	// Length wins over the reword prefix
	if utf8.RuneCountInString(line) > answerLength {
		return Suggestion{Kind: Answer, Content: line}
	}

	if content, ok := strings.CutPrefix(line, rewordPrefix); ok {
		return Suggestion{Kind: Reword, Content: content}
	}

	// Completions that echo the query only keep the continuation
	return Suggestion{Kind: Completion, Content: strings.TrimPrefix(line, query)}
}

// Sort orders suggestions by kind, keeping arrival order within a kind.
func Sort(s []Suggestion) {
	slices.SortStableFunc(s, func(a, b Suggestion) int {
		return cmp.Compare(a.Kind, b.Kind)
	})
}

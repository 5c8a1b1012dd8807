// Package dispatch drives one search field: it tracks the locked mode,
// keeps at most one suggestion request live and composes the destination
// on submit.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"newtab/navigate"
	"newtab/omnibox"
	"newtab/settings"
	"newtab/suggest"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatch: controller closed")

// Suggester fetches suggestions for a query.
type Suggester interface {
	Fetch(ctx context.Context, query string, snap settings.Snapshot) ([]suggest.Suggestion, error)
}

// SettingsSource provides the current settings snapshot.
type SettingsSource interface {
	Snapshot() settings.Snapshot
}

// State is the field's text and locked mode.
type State struct {
	Text string
	Mode omnibox.Mode
}

// Update is what a view needs to render the field.
type Update struct {
	Text        string               `json:"text"`
	Mode        omnibox.Mode         `json:"mode"`
	Icon        omnibox.Icon         `json:"icon,omitempty"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// Options configures a Controller. Registry and Settings are required.
type Options struct {
	Registry  *omnibox.Registry
	Settings  SettingsSource
	Suggester Suggester          // nil disables suggestions
	Navigator navigate.Navigator // nil means Submit only composes
	Logger    zerolog.Logger
}

// Controller owns the state of one search field. It is safe for
// concurrent use.
type Controller struct {
	registry  *omnibox.Registry
	settings  SettingsSource
	suggester Suggester
	navigator navigate.Navigator
	log       zerolog.Logger

	base context.Context
	wg   sync.WaitGroup

	mu          sync.Mutex
	state       State
	suggestions []suggest.Suggestion
	cancel      context.CancelFunc // cancels the live fetch, if any
	updates     chan Update
	closed      bool
}

// New creates a controller. Fetches run under ctx; cancelling it stops
// them all.
func New(ctx context.Context, opts Options) *Controller {
	return &Controller{
		registry:  opts.Registry,
		settings:  opts.Settings,
		suggester: opts.Suggester,
		navigator: opts.Navigator,
		log:       opts.Logger.With().Str("component", "dispatch").Logger(),
		base:      ctx,
		updates:   make(chan Update, 1),
	}
}

// Updates delivers the latest field state after every change. A slow
// reader skips intermediate states. The channel is closed by Close.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// State returns the current text and mode.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Suggestions returns the suggestions currently applied to the field.
func (c *Controller) Suggestions() []suggest.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.suggestions)
}

// Input handles a change of the field's text.
//
// Any in-flight fetch is cancelled first. Suggestions are cleared while a
// mode is locked or the text is shorter than the minimum query length;
// otherwise a fetch for exactly this text is started and its result is
// applied only if no later change has superseded it.
func (c *Controller) Input(text string) Update {
	snap := c.settings.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopFetch()
	c.state = State{
		Text: text,
		Mode: c.registry.Next(c.state.Mode, text, snap),
	}
	c.suggestions = nil

	if !c.closed && c.suggester != nil && c.state.Mode == omnibox.Free &&
		utf8.RuneCountInString(text) >= suggest.MinQueryLength {
		c.startFetch(text, snap)
	}

	return c.publish(snap)
}

// Reset clears the field, as when the page empties it externally.
func (c *Controller) Reset() Update {
	snap := c.settings.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopFetch()
	c.state = State{}
	c.suggestions = nil
	return c.publish(snap)
}

// Submit composes the destination for the current text and navigates to
// it. The registry is scanned afresh, so the locked mode does not matter,
// and unmatched text (even empty text) goes to the fallback search.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	snap := c.settings.Snapshot()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	c.stopFetch()
	text := c.state.Text
	c.mu.Unlock()

	target := c.registry.Compose(text, snap)
	c.log.Info().Str("url", target).Msg("Navigating")

	if c.navigator == nil {
		return target, nil
	}
	if err := c.navigator.Navigate(ctx, target); err != nil {
		return target, fmt.Errorf("navigating to %s: %w", target, err)
	}
	return target, nil
}

// Close cancels pending work, waits for it to finish and closes the
// updates channel.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopFetch()
	c.mu.Unlock()

	c.wg.Wait()
	close(c.updates)
}

// stopFetch cancels the live fetch. Callers hold c.mu.
func (c *Controller) stopFetch() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// startFetch launches a fetch for text. Callers hold c.mu.
func (c *Controller) startFetch(text string, snap settings.Snapshot) {
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		result, err := c.suggester.Fetch(ctx, text, snap)

		c.mu.Lock()
		defer c.mu.Unlock()

		// Cancellation is the only staleness test: a superseded request
		// has always been cancelled under c.mu before its successor.
		if ctx.Err() != nil {
			return
		}
		c.cancel = nil

		if err != nil {
			c.log.Warn().Err(err).Str("query", text).Msg("Suggestion fetch failed")
			result = nil
		}
		c.suggestions = result
		c.publish(snap)
	}()
}

// publish sends the current state on the updates channel, replacing any
// unread value. Callers hold c.mu.
func (c *Controller) publish(snap settings.Snapshot) Update {
	u := Update{
		Text:        c.state.Text,
		Mode:        c.state.Mode,
		Suggestions: make([]suggest.Suggestion, len(c.suggestions)),
	}
	copy(u.Suggestions, c.suggestions)
	if icon, ok := c.registry.Icon(c.state.Mode, c.state.Text, snap); ok {
		u.Icon = icon
	}
	if c.closed {
		return u
	}

	select {
	case <-c.updates:
	default:
	}
	c.updates <- u
	return u
}

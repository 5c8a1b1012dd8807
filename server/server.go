// Package server serves the new-tab page over HTTP: one-shot JSON
// endpoints, a redirecting submit endpoint and a websocket that drives a
// search field live.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.mau.fi/util/exhttp"

	"newtab/dispatch"
	"newtab/omnibox"
	"newtab/settings"
	"newtab/suggest"
)

// Settings is the part of the settings manager the server uses.
type Settings interface {
	Snapshot() settings.Snapshot
	AddPin(ctx context.Context, pin settings.Pin) error
	RemovePin(ctx context.Context, index int) error
}

// Options configures a Server.
type Options struct {
	Registry  *omnibox.Registry
	Settings  Settings
	Suggester dispatch.Suggester // nil disables suggestions
	Logger    zerolog.Logger
}

// Server handles the HTTP and websocket endpoints.
type Server struct {
	registry  *omnibox.Registry
	settings  Settings
	suggester dispatch.Suggester
	log       zerolog.Logger
	handler   http.Handler
}

// New creates a server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		registry:  opts.Registry,
		settings:  opts.Settings,
		suggester: opts.Suggester,
		log:       opts.Logger.With().Str("component", "server").Logger(),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /go", s.handleGo)
	api.HandleFunc("GET /api/mode", s.handleMode)
	api.HandleFunc("GET /api/suggest", s.handleSuggest)
	api.HandleFunc("GET /api/pins", s.handleListPins)
	api.HandleFunc("POST /api/pins", s.handleAddPin)
	api.HandleFunc("DELETE /api/pins/{n}", s.handleRemovePin)

	// The websocket route stays outside the access log, whose response
	// writer wrapper would hide the connection from the upgrade.
	root := http.NewServeMux()
	root.HandleFunc("GET /ws", s.handleWS)
	root.Handle("/", s.accessLog(api))

	s.handler = hlog.NewHandler(s.log)(root)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Open websockets see ctx cancelled and close.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("Serving new tab page")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info().Msg("Server stopped")
	return nil
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request")
	})(next)
}

// handleGo handles GET /go?q=, redirecting to the composed destination
func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	target := s.registry.Compose(r.URL.Query().Get("q"), s.settings.Snapshot())
	http.Redirect(w, r, target, http.StatusFound)
}

// ModeResponse is the body of GET /api/mode.
type ModeResponse struct {
	Mode omnibox.Mode `json:"mode"`
	Icon omnibox.Icon `json:"icon,omitempty"`
	URL  string       `json:"url"`
}

// handleMode handles GET /api/mode?q=, detecting from scratch
func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	snap := s.settings.Snapshot()

	resp := ModeResponse{URL: s.registry.Compose(text, snap)}
	if d, ok := s.registry.Detect(text, snap); ok {
		resp.Mode = omnibox.Mode(d.Provider.ID)
		resp.Icon = d.Provider.Icon(d.Payload, snap)
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, resp)
}

// handleSuggest handles GET /api/suggest?q=. Failures are logged and
// answered with an empty list.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result := []suggest.Suggestion{}

	if s.suggester != nil {
		got, err := s.suggester.Fetch(r.Context(), query, s.settings.Snapshot())
		switch {
		case r.Context().Err() != nil:
			return
		case err != nil:
			hlog.FromRequest(r).Warn().Err(err).Str("query", query).Msg("Suggestion fetch failed")
		case got != nil:
			result = got
		}
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{"suggestions": result})
}

// PinView is a pin as listed by GET /api/pins. Index is what the user
// types to jump to it.
type PinView struct {
	Index int          `json:"index"`
	Kind  string       `json:"type"`
	URL   string       `json:"url"`
	Icon  omnibox.Icon `json:"icon"`
}

func pinViews(pins []settings.Pin) []PinView {
	views := make([]PinView, len(pins))
	for i, p := range pins {
		views[i] = PinView{Index: i + 1, Kind: p.Kind, URL: p.URL, Icon: omnibox.PinIcon(p.Kind)}
	}
	return views
}

// handleListPins handles GET /api/pins
func (s *Server) handleListPins(w http.ResponseWriter, r *http.Request) {
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{"pins": pinViews(s.settings.Snapshot().Pins)})
}

// handleAddPin handles POST /api/pins
func (s *Server) handleAddPin(w http.ResponseWriter, r *http.Request) {
	var pin settings.Pin
	if err := decodeJSON(r, &pin); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	if pin.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := s.settings.AddPin(r.Context(), pin); err != nil {
		hlog.FromRequest(r).Err(err).Msg("Failed to add pin")
		writeError(w, http.StatusInternalServerError, "failed to add pin")
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusCreated, map[string]any{"pins": pinViews(s.settings.Snapshot().Pins)})
}

// handleRemovePin handles DELETE /api/pins/{n}, n being the 1-based index
func (s *Server) handleRemovePin(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pin index %q", r.PathValue("n"))
		return
	}
	err = s.settings.RemovePin(r.Context(), n-1)
	switch {
	case errors.Is(err, settings.ErrPinIndex):
		writeError(w, http.StatusNotFound, "no pin %d", n)
		return
	case err != nil:
		hlog.FromRequest(r).Err(err).Msg("Failed to remove pin")
		writeError(w, http.StatusInternalServerError, "failed to remove pin")
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, map[string]any{"pins": pinViews(s.settings.Snapshot().Pins)})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.mau.fi/util/exhttp"

	"newtab/dispatch"
	"newtab/navigate"
)

// Message types exchanged over /ws.
const (
	MsgInput    = "input"    // client: the field changed
	MsgSubmit   = "submit"   // client: enter pressed
	MsgReset    = "reset"    // client: the field was cleared
	MsgState    = "state"    // server: mode, icon and suggestions
	MsgNavigate = "navigate" // server: go to URL
	MsgError    = "error"    // server: the last message was not understood
)

// ClientMessage is a message sent by the page.
type ClientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerMessage is a message sent to the page.
type ServerMessage struct {
	Type string `json:"type"`
	*dispatch.Update
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleWS drives one search field. Each connection owns its controller,
// so typing in one tab never cancels another tab's request.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := s.log.With().Str("conn_id", xid.New().String()).Logger()
	log.Debug().Msg("Field connected")

	ctrl := dispatch.New(ctx, dispatch.Options{
		Registry:  s.registry,
		Settings:  s.settings,
		Suggester: s.suggester,
		Navigator: navigate.Func(func(ctx context.Context, url string) error {
			return wsjson.Write(ctx, conn, ServerMessage{Type: MsgNavigate, URL: url})
		}),
		Logger: log,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ctrl.Updates() {
			if err := wsjson.Write(ctx, conn, ServerMessage{Type: MsgState, Update: &u}); err != nil {
				cancel()
				return
			}
		}
	}()

	err = s.readLoop(ctx, conn, ctrl, log)
	shuttingDown := r.Context().Err() != nil
	cancel()
	ctrl.Close()
	<-done

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		log.Debug().Msg("Field disconnected")
	case shuttingDown:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	default:
		log.Debug().Err(err).Msg("Field connection ended")
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, ctrl *dispatch.Controller, log zerolog.Logger) error {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}

		switch msg.Type {
		case MsgInput:
			ctrl.Input(msg.Text)
		case MsgReset:
			ctrl.Reset()
		case MsgSubmit:
			if _, err := ctrl.Submit(ctx); err != nil {
				return err
			}
		default:
			log.Debug().Str("type", msg.Type).Msg("Unknown message type")
			if err := wsjson.Write(ctx, conn, ServerMessage{Type: MsgError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}); err != nil {
				return err
			}
		}
	}
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("empty body")
	}
	return err
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	exhttp.WriteJSONResponse(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

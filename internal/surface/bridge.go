package surface

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/VelixarAi/velixar-client/internal/api/respond"
	"github.com/VelixarAi/velixar-client/internal/search"
)

// handleWS runs one panel connection: a reader feeding the session and a
// writer draining its updates, so each direction keeps its order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.acquire() {
		respond.WriteError(w, http.StatusServiceUnavailable, "panel server is shutting down")
		return
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := make(chan Outbound, outboxSize)
	send := func(m Outbound) {
		select {
		case out <- m:
		case <-ctx.Done():
		}
	}

	sess := search.NewSession(s.deps.Searcher, func(u search.Update) { send(FromUpdate(u)) }, s.deps.SessionOptions...)
	go sess.Run(ctx)
	defer sess.Close()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		if !s.writeLoop(ctx, conn, out) {
			// unblock the reader
			_ = conn.Close()
		}
	}()

	send(Outbound{Type: TypePlaceholder, Message: search.PlaceholderTypeToSearch})
	s.readLoop(ctx, conn, sess)

	cancel()
	<-writerDone
	_ = conn.Close()
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, sess *search.Session) {
	for {
		var msg Inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("panel connection closed")
			}
			return
		}
		s.dispatch(ctx, sess, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, sess *search.Session, msg Inbound) {
	if msg.Type == TypeSearch {
		sess.Input(msg.Query)
		return
	}

	var act func(context.Context, string) error
	switch msg.Type {
	case TypeCopy:
		act = s.deps.Actions.CopyContent
	case TypeInsert:
		act = s.deps.Actions.InsertContent
	case TypeOpen:
		act = s.deps.Actions.OpenContent
	default:
		s.log.Warn().Str("type", msg.Type).Msg("ignoring unknown panel message")
		return
	}

	content := msg.Content
	if content == "" && msg.ID != "" {
		m, ok := sess.Resolve(msg.ID)
		if !ok {
			s.log.Debug().Str("id", msg.ID).Msg("panel action for memory not in results")
			return
		}
		content = m.Content
	}
	if content == "" {
		return
	}
	// Action failures are surfaced by the host itself.
	_ = act(ctx, content)
}

// writeLoop reports false when it stopped because of a write error.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan Outbound) bool {
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			_ = conn.SetReadDeadline(time.Now().Add(writeWait))
			return true
		case m := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				s.log.Debug().Err(err).Msg("panel write failed")
				return false
			}
		}
	}
}

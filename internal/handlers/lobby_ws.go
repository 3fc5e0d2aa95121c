// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/bluff/internal/lobby"
	"github.com/jason-s-yu/bluff/internal/middleware"
	"github.com/jason-s-yu/bluff/internal/protocol"
	"github.com/jason-s-yu/bluff/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	pingTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// LobbyWSHandler binds a websocket to the caller's session and lobby. A new socket replaces the
// session's previous one.
func (s *Server) LobbyWSHandler(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"lobby"},
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.CloseNow()

	if c.Subprotocol() != "lobby" {
		c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
		return
	}

	sess, err := s.clientFromRequest(r)
	if err != nil {
		c.Close(InvalidAuthTokenError, "authentication failed")
		return
	}
	lob, ok := s.Lobbies.Get(sess.LobbyID())
	if !ok {
		c.Close(InvalidLobbyIDError, "not in a lobby")
		return
	}
	logger := s.Logger.WithFields(logrus.Fields{"client": sess.ID(), "lobby": lob.ID})

	sess.Connecting()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	gen, out := sess.Attach(cancel)

	if err := lob.Connect(sess); err != nil {
		sess.Detach(gen)
		c.Close(NotMemberError, "not a member of this lobby")
		return
	}
	middleware.LogWebSocketConnect(s.Logger, remoteAddr, r.URL.Path)

	go writePump(ctx, c, out, logger)
	err = readPump(ctx, c, lob, sess, logger)

	sess.Closing(gen)
	if sess.Detach(gen) {
		lob.Disconnect(sess)
	} else {
		logger.Debug("socket replaced by a newer connection")
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
		err = nil
	}
	middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, err)
}

// readPump admits, decodes and applies inbound frames until the socket or ctx ends. Dropped frames
// never reach the lobby.
func readPump(ctx context.Context, c *websocket.Conn, lob *lobby.Lobby, sess *session.Session, logger *logrus.Entry) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			logger.Debugf("ignoring non-text frame %v", typ)
			continue
		}
		if !sess.Allow() {
			logger.Debug("rate limited, dropping frame")
			continue
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			logger.Debugf("dropping frame: %v", err)
			continue
		}
		if sess.LobbyID() != lob.ID {
			continue
		}
		lob.Handle(sess, msg)
	}
}

// writePump drains the session outbox onto the socket and keeps it alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, out <-chan protocol.Message, logger *logrus.Entry) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close(websocket.StatusGoingAway, "connection replaced or closed")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, c, msg)
			cancel()
			if err != nil {
				logger.Warnf("failed to write %s: %v", msg.EventName(), err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed, assuming disconnect: %v", err)
				return
			}
		}
	}
}

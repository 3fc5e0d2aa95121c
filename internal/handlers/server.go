// internal/handlers/server.go
package handlers

import (
	"net/http"
	"time"

	"github.com/jason-s-yu/bluff/internal/lobby"
	"github.com/jason-s-yu/bluff/internal/middleware"
	"github.com/jason-s-yu/bluff/internal/session"
	"github.com/sirupsen/logrus"
)

// Server holds the in-memory registries behind the HTTP and websocket endpoints.
type Server struct {
	Lobbies *lobby.Store
	Clients *session.Store
	Logger  *logrus.Logger

	// TokenTTL sets the auth cookie lifetime; zero issues a session cookie.
	TokenTTL time.Duration

	// OriginPatterns are passed to the websocket handshake.
	OriginPatterns []string
}

func NewServer(lobbies *lobby.Store, clients *session.Store, logger *logrus.Logger) *Server {
	return &Server{
		Lobbies:        lobbies,
		Clients:        clients,
		Logger:         logger,
		OriginPatterns: []string{"*"},
	}
}

// Routes builds the request multiplexer, wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /session", s.CreateSessionHandler)

	mux.HandleFunc("POST /lobby/create", s.CreateLobbyHandler)
	mux.HandleFunc("POST /lobby/join/{id}", s.JoinLobbyHandler)
	mux.HandleFunc("POST /lobby/leave", s.LeaveLobbyHandler)
	mux.HandleFunc("GET /lobby/list", s.ListLobbiesHandler)

	mux.HandleFunc("/lobby/ws", s.LobbyWSHandler)

	return middleware.LogMiddleware(s.Logger)(mux)
}

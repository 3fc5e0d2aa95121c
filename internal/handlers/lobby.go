// internal/handlers/lobby.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/auth"
	"github.com/jason-s-yu/bluff/internal/lobby"
	"github.com/jason-s-yu/bluff/internal/session"
)

type lobbyRequest struct {
	Password string `json:"password"`
}

type membershipResponse struct {
	LobbyID  uuid.UUID `json:"lobbyID"`
	PlayerID uuid.UUID `json:"playerID"`
}

type lobbySummary struct {
	ID       uuid.UUID `json:"id"`
	State    string    `json:"state"`
	Members  int       `json:"members"`
	Password bool      `json:"password"`
}

// CreateLobbyHandler creates a lobby, optionally password protected, and seats the caller in it.
func (s *Server) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.clientFromRequest(r)
	if err != nil {
		http.Error(w, "invalid or missing auth_token", http.StatusUnauthorized)
		return
	}
	var req lobbyRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}

	var hash string
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			s.Logger.Errorf("hashing lobby password: %v", err)
			http.Error(w, "could not create lobby", http.StatusInternalServerError)
			return
		}
	}

	s.leaveCurrentLobby(sess)
	l := s.Lobbies.Create(hash)
	player, err := l.Join(sess)
	if err != nil {
		l.Close()
		s.Logger.Errorf("creator could not join lobby %s: %v", l.ID, err)
		http.Error(w, "could not create lobby", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, membershipResponse{LobbyID: l.ID, PlayerID: player.ID})
}

// JoinLobbyHandler seats the caller in an existing lobby, leaving any other lobby first.
func (s *Server) JoinLobbyHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.clientFromRequest(r)
	if err != nil {
		http.Error(w, "invalid or missing auth_token", http.StatusUnauthorized)
		return
	}
	lobbyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid lobby id", http.StatusBadRequest)
		return
	}
	l, ok := s.Lobbies.Get(lobbyID)
	if !ok {
		http.Error(w, "lobby does not exist", http.StatusNotFound)
		return
	}
	var req lobbyRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		http.Error(w, "bad lobby request payload", http.StatusBadRequest)
		return
	}

	if sess.LobbyID() == l.ID {
		if p, ok := l.Player(sess.ID()); ok {
			writeJSON(w, http.StatusOK, membershipResponse{LobbyID: l.ID, PlayerID: p.ID})
			return
		}
	}

	match, err := auth.CheckPassword(req.Password, l.PasswordHash())
	if err != nil {
		s.Logger.WithField("lobby", l.ID).Errorf("checking lobby password: %v", err)
		http.Error(w, "could not join lobby", http.StatusInternalServerError)
		return
	}
	if !match {
		http.Error(w, "wrong lobby password", http.StatusForbidden)
		return
	}

	s.leaveCurrentLobby(sess)
	player, err := l.Join(sess)
	switch {
	case errors.Is(err, lobby.ErrLobbyClosed):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lobby.ErrLobbyFull), errors.Is(err, lobby.ErrNotJoinable), errors.Is(err, lobby.ErrAlreadyMember):
		http.Error(w, err.Error(), http.StatusConflict)
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, membershipResponse{LobbyID: l.ID, PlayerID: player.ID})
	}
}

// LeaveLobbyHandler removes the caller from its lobby for good.
func (s *Server) LeaveLobbyHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.clientFromRequest(r)
	if err != nil {
		http.Error(w, "invalid or missing auth_token", http.StatusUnauthorized)
		return
	}
	s.leaveCurrentLobby(sess)
	w.WriteHeader(http.StatusNoContent)
}

// ListLobbiesHandler lists the active lobbies.
func (s *Server) ListLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.clientFromRequest(r); err != nil {
		http.Error(w, "invalid or missing auth_token", http.StatusUnauthorized)
		return
	}
	lobbies := s.Lobbies.List()
	out := make([]lobbySummary, 0, len(lobbies))
	for _, l := range lobbies {
		out = append(out, lobbySummary{
			ID:       l.ID,
			State:    string(l.State()),
			Members:  l.MemberCount(),
			Password: l.PasswordHash() != "",
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) leaveCurrentLobby(sess *session.Session) {
	id := sess.LobbyID()
	if id == uuid.Nil {
		return
	}
	if l, ok := s.Lobbies.Get(id); ok {
		l.Leave(sess)
	}
	sess.SetLobbyID(uuid.Nil)
}

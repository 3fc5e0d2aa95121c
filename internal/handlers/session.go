// internal/handlers/session.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bluff/internal/auth"
)

type sessionResponse struct {
	ClientID uuid.UUID `json:"clientID"`
	LobbyID  uuid.UUID `json:"lobbyID"`
}

// CreateSessionHandler issues a guest identity. A request that already carries a valid cookie for
// a live session gets that session back instead of a new one.
func (s *Server) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.clientFromRequest(r); err == nil {
		writeJSON(w, http.StatusOK, sessionResponse{ClientID: sess.ID(), LobbyID: sess.LobbyID()})
		return
	}

	clientID := uuid.New()
	token, err := auth.CreateToken(clientID)
	if err != nil {
		s.Logger.Errorf("failed to create guest token: %v", err)
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}
	s.Clients.Register(clientID)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   int(s.TokenTTL.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	s.Logger.WithField("client", clientID).Info("guest session created")
	writeJSON(w, http.StatusCreated, sessionResponse{ClientID: clientID})
}

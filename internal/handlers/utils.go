// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jason-s-yu/bluff/internal/auth"
	"github.com/jason-s-yu/bluff/internal/session"
)

var errNoSession = errors.New("no session for token")

// clientFromRequest resolves the auth cookie to a registered session. Lookups never create.
func (s *Server) clientFromRequest(r *http.Request) (*session.Session, error) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return nil, err
	}
	clientID, err := auth.AuthenticateToken(cookie.Value)
	if err != nil {
		return nil, err
	}
	sess, ok := s.Clients.Get(clientID)
	if !ok {
		return nil, errNoSession
	}
	sess.Touch()
	return sess, nil
}

// decodeOptionalJSON decodes r's body into v. An empty body leaves v untouched.
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the lobby socket.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected without the lobby subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Auth cookie missing, invalid, or not bound to a session.
	NotMemberError        websocket.StatusCode = 3002 // Client is not a member of the lobby it is bound to.
	InvalidLobbyIDError   websocket.StatusCode = 3003 // Client is not in a lobby, or the lobby no longer exists.
)

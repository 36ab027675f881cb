package api

import (
	"log"
	"net/http"

	"magazyn-plikow/internal/websocket"
)

// ServeWsHandler upgrades the connection to a websocket pushing the
// caller's file-change events. Browsers cannot set an Authorization
// header on a websocket handshake, so the token travels as a query
// parameter instead.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.store.GetUserBySessionToken(r.Context(), token)
	if err != nil {
		log.Printf("ERROR: session lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Session verification failed")
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(s.wsHub, conn, user.ID)
	s.wsHub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/taskdeck/internal/auth"
)

// Handle returns an HTTP handler that upgrades the connection and runs
// it as a hub client. It must sit behind the access guard: the bound
// user comes from the request identity.
func Handle(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
	}
}

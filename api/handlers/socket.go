package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/dispatch-api/api"
	"github.com/linesmerrill/dispatch-api/connections"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Socket exported for testing purposes
type Socket struct {
	Auth     *api.Auth
	Registry *connections.Registry
	Hub      *connections.Hub
}

// ConnectHandler upgrades an authenticated request to a websocket and
// registers it for the caller until the client goes away. The token comes
// from the token query parameter or a bearer header.
func (s Socket) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = api.BearerToken(r)
	}
	claims, err := s.Auth.ParseToken(token)
	if err != nil {
		writeError(w, "unauthorized", err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}
	h := connections.NewSocketHandle(conn, s.Hub)
	userID := claims.Subject
	s.Registry.Register(userID, h, claims.Role)

	defer func() {
		// a reconnect may already have replaced this handle
		s.Registry.UnregisterHandle(userID, h.ID())
		h.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Warnw("websocket closed unexpectedly", "userId", userID, "error", err)
			}
			return
		}
	}
}

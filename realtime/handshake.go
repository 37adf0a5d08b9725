package realtime

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"team-chat/auth"
)

// Handler upgrades authenticated HTTP requests to websocket connections.
// The bearer token travels out of band, as a query parameter or an
// Authorization header, and is verified before the upgrade: a request
// without a valid token is refused with 401 and no connection state is
// ever created for it.
type Handler struct {
	hub      *Hub
	issuer   auth.TokenIssuer
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *Hub, issuer auth.TokenIssuer, checkOrigin func(*http.Request) bool, log *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		issuer: issuer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.log.Info("Handshake without token refused", "remote", r.RemoteAddr)
		http.Error(w, "no auth token", http.StatusUnauthorized)
		return
	}

	claims, err := h.issuer.Validate(token)
	if err != nil {
		h.log.Info("Handshake with invalid token refused", "remote", r.RemoteAddr, "err", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := NewClient(uuid.New().String(), claims.UserID, h.hub, conn, h.log)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// bearerToken extracts the handshake credential: the "token" query
// parameter, or an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

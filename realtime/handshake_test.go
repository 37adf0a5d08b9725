package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"team-chat/auth"
	"team-chat/domain"
)

func newHandshakeServer(t *testing.T, issuer auth.TokenIssuer) (*httptest.Server, *Hub) {
	t.Helper()
	hub := newTestHub(nil)
	handler := NewHandler(hub, issuer, func(r *http.Request) bool { return true }, slog.Default())
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, hub
}

func TestHandshake_Without_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	server, hub := newHandshakeServer(t, issuer)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.Error(err)
	req.Equal(401, resp.StatusCode)

	// No presence entry was created, so no broadcast can have occurred
	req.Empty(hub.presence.Snapshot())
	req.Empty(hub.clients)
}

func TestHandshake_With_Invalid_Token_Is_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	server, hub := newHandshakeServer(t, issuer)

	forged, err := auth.NewTokenIssuer("other-secret", time.Hour).Generate("u1")
	req.NoError(err)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + forged
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.Error(err)
	req.Equal(401, resp.StatusCode)
	req.Empty(hub.presence.Snapshot())
}

func TestHandshake_With_Valid_Token_Registers_Presence(t *testing.T) {
	req := require.New(t)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	server, hub := newHandshakeServer(t, issuer)

	token, err := issuer.Generate("u1")
	req.NoError(err)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	req.NoError(err)
	defer conn.Close()

	// The first frame is the presence snapshot including the new user
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, raw, err := conn.ReadMessage()
	req.NoError(err)

	var envelope Envelope
	req.NoError(json.Unmarshal(raw, &envelope))
	req.Equal(EventOnlineUsers, envelope.Event)

	var profiles []domain.Profile
	req.NoError(json.Unmarshal(envelope.Data, &profiles))
	req.Len(profiles, 1)
	req.Equal("u1", profiles[0].ID)

	// Disconnect deregisters the user
	req.NoError(conn.Close())
	req.Eventually(func() bool {
		return len(hub.presence.Snapshot()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandshake_Token_From_Authorization_Header(t *testing.T) {
	req := require.New(t)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	server, _ := newHandshakeServer(t, issuer)

	token, err := issuer.Generate("u1")
	req.NoError(err)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	header := map[string][]string{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	req.NoError(err)
	conn.Close()
}

// Package server exposes the HTTP API used by the chat frontend: account
// management, channels, message history and search, plus the websocket
// entry point for the realtime layer. JSON in, JSON out; authentication is
// a bearer token on every route except signup and login.
package server

import (
	"log/slog"
	"net/http"

	"team-chat/auth"
	"team-chat/observability"
	"team-chat/realtime"
	"team-chat/repositories"
	"team-chat/services"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	auth     services.IAuthService
	channels services.IChannelService
	messages services.IMessageService
	users    repositories.IUserRepository
	issuer   auth.TokenIssuer
	monitor  *observability.Monitor
	hub      *realtime.Hub
	log      *slog.Logger
}

func NewHandlers(
	authService services.IAuthService,
	channels services.IChannelService,
	messages services.IMessageService,
	users repositories.IUserRepository,
	issuer auth.TokenIssuer,
	monitor *observability.Monitor,
	hub *realtime.Hub,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		auth:     authService,
		channels: channels,
		messages: messages,
		users:    users,
		issuer:   issuer,
		monitor:  monitor,
		hub:      hub,
		log:      log,
	}
}

// NewMux returns the HTTP handler with all routes wired. The websocket
// handler does its own token check during the handshake, so it is mounted
// outside the auth middleware.
func NewMux(h *Handlers, ws *realtime.Handler, allowedOrigin string) http.Handler {
	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("POST /api/auth/signup", h.HandleSignup)
	mux.HandleFunc("POST /api/auth/login", h.HandleLogin)
	mux.HandleFunc("GET /api/avatars/{userID}", h.HandleGetAvatar)
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.HandleFunc("GET /status", h.HandleStatus)
	mux.Handle("GET /ws", ws)

	// Everything below requires a valid bearer token.
	protected := func(fn http.HandlerFunc) http.Handler {
		return requireAuth(h.issuer, fn, h.log)
	}
	mux.Handle("GET /api/auth/me", protected(h.HandleMe))
	mux.Handle("PUT /api/auth/me/avatar", protected(h.HandleSetAvatar))

	mux.Handle("GET /api/channels", protected(h.HandleListChannels))
	mux.Handle("POST /api/channels", protected(h.HandleCreateChannel))
	mux.Handle("GET /api/channels/{id}", protected(h.HandleGetChannel))
	mux.Handle("POST /api/channels/{id}/join", protected(h.HandleJoinChannel))
	mux.Handle("POST /api/channels/{id}/leave", protected(h.HandleLeaveChannel))

	mux.Handle("GET /api/channels/{id}/messages", protected(h.HandleListMessages))
	mux.Handle("POST /api/channels/{id}/messages", protected(h.HandlePostMessage))
	mux.Handle("GET /api/channels/{id}/messages/search", protected(h.HandleSearchMessages))

	return withCORS(mux, allowedOrigin)
}

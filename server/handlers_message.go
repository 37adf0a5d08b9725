package server

import (
	"net/http"
	"strconv"

	"team-chat/domain"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

type messagePage struct {
	Messages   []domain.Message `json:"messages"`
	HasMore    bool             `json:"hasMore"`
	NextCursor *string          `json:"nextCursor"`
}

// HandleListMessages pages backwards through a channel's history. "limit"
// bounds the page size and "before" is the opaque cursor returned by the
// previous page.
func (h *Handlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultPageLimit)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	var cursor *string
	if before := r.URL.Query().Get("before"); before != "" {
		cursor = &before
	}

	messages, next, hasMore, err := h.messages.List(r.PathValue("id"), UserID(r.Context()), limit, cursor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messagePage{Messages: messages, HasMore: hasMore, NextCursor: next})
}

type postMessageRequest struct {
	Text string `json:"text"`
}

func (h *Handlers) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	message, err := h.messages.Post(r.PathValue("id"), UserID(r.Context()), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]domain.Message{"message": message})
}

func (h *Handlers) HandleSearchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		badRequest(w, "missing query parameter q")
		return
	}
	limit := parseIntQuery(r, "limit", defaultPageLimit)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	messages, err := h.messages.Search(r.Context(), r.PathValue("id"), UserID(r.Context()), query, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Message{"messages": messages})
}

// parseIntQuery extracts an int query parameter with a default value.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

package server

import (
	"net/http"

	"team-chat/domain"
)

type createChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"isPrivate"`
}

func (h *Handlers) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.List(UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Channel{"channels": channels})
}

func (h *Handlers) HandleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	channel, err := h.channels.Create(req.Name, req.Description, req.IsPrivate, UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.Info("Channel created", "channel_id", channel.ID, "name", channel.Name, "private", channel.IsPrivate)
	writeJSON(w, http.StatusCreated, map[string]domain.Channel{"channel": channel})
}

func (h *Handlers) HandleGetChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.channels.Get(r.PathValue("id"), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Channel{"channel": channel})
}

func (h *Handlers) HandleJoinChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.channels.Join(r.PathValue("id"), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Channel{"channel": channel})
}

func (h *Handlers) HandleLeaveChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.channels.Leave(r.PathValue("id"), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Channel{"channel": channel})
}

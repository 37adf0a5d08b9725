package server

import "net/http"

func (h *Handlers) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus reports process self-metrics plus live realtime counters.
func (h *Handlers) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	stats := h.monitor.Snapshot()
	stats.OnlineUsers, stats.OpenChannels = h.hub.Stats()
	writeJSON(w, http.StatusOK, stats)
}

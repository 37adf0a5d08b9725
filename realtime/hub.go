package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// AccessChecker reports whether a user may enter a channel's room. The HTTP
// layer enforces membership on reads and writes; the hub re-checks at join
// time so a client cannot subscribe to a private channel's fan-out by
// guessing its identifier.
type AccessChecker func(channelID, userID string) bool

// Hub owns the presence registry, the room membership and the set of live
// connections. It is the single writer of both shared maps; fan-out happens
// under the hub lock so events broadcast to one room keep the order in which
// the relays were invoked.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*Client // connID -> client
	presence *Presence
	rooms    *Rooms
	access   AccessChecker
	log      *slog.Logger
}

func NewHub(presence *Presence, access AccessChecker, log *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		presence: presence,
		rooms:    NewRooms(),
		access:   access,
		log:      log,
	}
}

// Register admits an authenticated connection: it is tracked, the user is
// marked present and the updated presence snapshot goes out to everyone.
func (h *Hub) Register(c *Client) {
	h.presence.Register(c.userID, c.id)

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.log.Info("Connection registered", "conn_id", c.id, "user_id", c.userID)
	h.broadcastPresence()
}

// Unregister tears a connection down: rooms first, then presence, then the
// client map, all before the presence broadcast. After this returns no
// fan-out can reach the connection.
func (h *Hub) Unregister(c *Client) {
	h.rooms.DropConnection(c.id)
	h.presence.Deregister(c.userID, c.id)

	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	c.closed = true
	h.mu.Unlock()
	close(c.send)

	h.log.Info("Connection unregistered", "conn_id", c.id, "user_id", c.userID)
	h.broadcastPresence()
}

// HandleEvent dispatches one inbound frame. Malformed frames and frames
// with a missing channel identifier are dropped without feedback; the
// realtime layer has no error channel back to the client.
func (h *Hub) HandleEvent(c *Client, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.log.Debug("Dropping malformed frame", "conn_id", c.id, "err", err)
		return
	}

	switch envelope.Event {
	case EventJoinChannel:
		if channelID := channelIDFrom(envelope.Data); channelID != "" {
			h.join(c, channelID)
		}
	case EventLeaveChannel:
		if channelID := channelIDFrom(envelope.Data); channelID != "" {
			h.rooms.Leave(c.id, channelID)
		}
	case EventSendMessage:
		var payload MessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return
		}
		if payload.ChannelID == "" || len(payload.Message) == 0 {
			return
		}
		h.RelayMessage(payload.ChannelID, payload.Message)
	case EventTyping:
		if channelID := channelIDFrom(envelope.Data); channelID != "" {
			h.RelayTyping(channelID, c)
		}
	case EventStopTyping:
		if channelID := channelIDFrom(envelope.Data); channelID != "" {
			h.RelayStopTyping(channelID, c)
		}
	default:
		h.log.Debug("Dropping unknown event", "conn_id", c.id, "event", envelope.Event)
	}
}

func channelIDFrom(data json.RawMessage) string {
	var payload ChannelPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.ChannelID
}

func (h *Hub) join(c *Client, channelID string) {
	if h.access != nil && !h.access(channelID, c.userID) {
		h.log.Warn("Join refused", "conn_id", c.id, "user_id", c.userID, "channel_id", channelID)
		return
	}
	h.rooms.Join(c.id, channelID)
}

// RelayMessage fans a newMessage event out to every connection in the
// channel's room, the sender's own connections included. The message blob
// is already durable; this is delivery only.
func (h *Hub) RelayMessage(channelID string, message json.RawMessage) {
	frame := encodeEvent(EventNewMessage, MessagePayload{ChannelID: channelID, Message: message})
	h.relayToRoom(channelID, "", frame)
}

// RelayTyping fans userTyping out to the room, sender excluded. The payload
// carries the sender's cached presence profile.
func (h *Hub) RelayTyping(channelID string, sender *Client) {
	profile, ok := h.presence.Profile(sender.userID)
	if !ok {
		return
	}
	frame := encodeEvent(EventUserTyping, TypingPayload{ChannelID: channelID, User: profile})
	h.relayToRoom(channelID, sender.id, frame)
}

// RelayStopTyping fans userStopTyping out to the room, sender excluded.
func (h *Hub) RelayStopTyping(channelID string, sender *Client) {
	frame := encodeEvent(EventUserStopTyping, StopTypingPayload{ChannelID: channelID, UserID: sender.userID})
	h.relayToRoom(channelID, sender.id, frame)
}

// relayToRoom delivers a frame to the room's live connections. The hub lock
// is held for the whole enqueue pass, which serializes relays and gives the
// per-room FIFO guarantee.
func (h *Hub) relayToRoom(channelID, excludeConnID string, frame []byte) {
	if frame == nil {
		return
	}
	members := h.rooms.Members(channelID)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, connID := range members {
		if connID == excludeConnID {
			continue
		}
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		client.enqueue(frame)
	}
}

// Stats reports the number of distinct connected users and the number of
// rooms with at least one subscriber.
func (h *Hub) Stats() (onlineUsers, openRooms int) {
	return h.presence.Count(), h.rooms.Count()
}

// broadcastPresence sends the full presence snapshot to every connected
// client. No diffing, no debouncing: every registry mutation produces one
// broadcast.
func (h *Hub) broadcastPresence() {
	frame := encodeEvent(EventOnlineUsers, h.presence.Snapshot())
	if frame == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.enqueue(frame)
	}
}

// Package realtime implements presence tracking and room-scoped fan-out on
// top of a websocket transport. Every frame is a JSON envelope carrying an
// event name and its payload. Delivery is fire and forget: connections that
// are gone or too slow are skipped, ordering is FIFO per room only.
package realtime

import (
	"encoding/json"

	"team-chat/domain"
)

// Client-to-server event names.
const (
	EventJoinChannel  = "joinChannel"
	EventLeaveChannel = "leaveChannel"
	EventSendMessage  = "sendMessage"
	EventTyping       = "typing"
	EventStopTyping   = "stopTyping"
)

// Server-to-client event names.
const (
	EventOnlineUsers    = "onlineUsers"
	EventNewMessage     = "newMessage"
	EventUserTyping     = "userTyping"
	EventUserStopTyping = "userStopTyping"
)

// Envelope is the wire format of every realtime frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChannelPayload carries events that only name a channel
// (joinChannel, leaveChannel, typing, stopTyping).
type ChannelPayload struct {
	ChannelID string `json:"channelId"`
}

// MessagePayload carries sendMessage and newMessage. The message body is an
// opaque blob: it was already persisted through the HTTP write path and is
// relayed as-is.
type MessagePayload struct {
	ChannelID string          `json:"channelId"`
	Message   json.RawMessage `json:"message"`
}

// TypingPayload is the userTyping fan-out.
type TypingPayload struct {
	ChannelID string         `json:"channelId"`
	User      domain.Profile `json:"user"`
}

// StopTypingPayload is the userStopTyping fan-out.
type StopTypingPayload struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

// encodeEvent marshals an outbound envelope. Payloads are plain structs, so
// a marshal failure would be a programming error; callers treat nil as
// "nothing to send".
func encodeEvent(event string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return frame
}

// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. Text is the censored form;
// CensoredWords records which patterns were matched during moderation.
type Message struct {
	ID            uuid.UUID `json:"id"`
	ChannelID     string    `json:"channelId"`
	SenderID      string    `json:"senderId"`
	Text          string    `json:"text"`
	Language      string    `json:"language,omitempty"`
	CensoredWords []string  `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

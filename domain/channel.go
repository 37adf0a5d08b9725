package domain

import (
	"slices"
	"time"
)

// Channel is a named conversation. Names are unique and stored lowercased.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPrivate   bool      `json:"isPrivate"`
	Members     []string  `json:"members"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether userID belongs to the channel.
func (c Channel) HasMember(userID string) bool {
	return slices.Contains(c.Members, userID)
}

// Accessible reports whether userID may read the channel:
// public channels are open to everyone, private ones to members only.
func (c Channel) Accessible(userID string) bool {
	return !c.IsPrivate || c.HasMember(userID)
}

// Package domain contains core concepts of the chat system.
// This file defines User entities and their public projection.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Status values broadcast in presence snapshots.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// User is the full account record. PasswordHash never leaves the
// repository/service layers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
	Status       string
	CreatedAt    time.Time
}

// Profile is the public projection of a user, safe to send to any client.
// It is what presence snapshots and typing events carry.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// Profile builds the public projection of the user.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Status: u.Status}
}

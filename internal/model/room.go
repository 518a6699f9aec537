package model

import (
	"slices"
	"time"
)

// RoomID is the short human-shareable identifier used to pair two players
type RoomID string

// MaxRoomPlayers is the number of participants a room accepts
const MaxRoomPlayers = 2

// DefaultRoomName is used when a room is created without a name
const DefaultRoomName = "Game Room"

// Room pairs two players for repeated rounds
type Room struct {
	ID        RoomID     `json:"id"`
	Name      string     `json:"name"`
	Players   []PlayerID `json:"players"` // join order, at most MaxRoomPlayers
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasPlayer reports whether the player is a member of the room
func (r *Room) HasPlayer(id PlayerID) bool {
	return slices.Contains(r.Players, id)
}

// IsFull reports whether the room has no free seat
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxRoomPlayers
}

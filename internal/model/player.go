package model

import (
	"strings"
	"time"
)

// PlayerID uniquely identifies a player across the system
type PlayerID string

// MaxDisplayNameLength bounds display names accepted by the identity service
const MaxDisplayNameLength = 32

// PlayerIdentity is the stable identity issued for a display name.
// It is read-only once a session exists.
type PlayerIdentity struct {
	UserID      PlayerID `json:"userId"`
	DisplayName string   `json:"username"`
}

// Player is the identity service's record of a player
type Player struct {
	ID          PlayerID  `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Identity returns the public identity of the player
func (p *Player) Identity() PlayerIdentity {
	return PlayerIdentity{UserID: p.ID, DisplayName: p.DisplayName}
}

// NormalizeDisplayName trims a requested display name and validates its length
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxDisplayNameLength {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}

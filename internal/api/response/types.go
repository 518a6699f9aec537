package response

import (
	"github.com/mcoot/handgame/internal/model"
)

// Identity represents a player in API responses
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// IdentityFromModel converts a model.Player to a response Identity
func IdentityFromModel(p *model.Player) Identity {
	return Identity{
		UserID:   string(p.ID),
		Username: p.DisplayName,
	}
}

// Room represents a room in API responses
type Room struct {
	RoomID   string   `json:"roomId"`
	RoomName string   `json:"roomName"`
	Players  []string `json:"players"`
}

// RoomFromModel converts model.Room
func RoomFromModel(r *model.Room) Room {
	players := make([]string, len(r.Players))
	for i, p := range r.Players {
		players[i] = string(p)
	}
	return Room{
		RoomID:   string(r.ID),
		RoomName: r.Name,
		Players:  players,
	}
}

// Health is the body of the health endpoint
type Health struct {
	Status string `json:"status"`
	Hubs   int    `json:"hubs"`
}

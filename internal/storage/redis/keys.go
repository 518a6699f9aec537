package redis

import (
	"fmt"

	"github.com/mcoot/handgame/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "handgame"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playerNameIndexKey returns the Redis key for the display name -> player_id index
func playerNameIndexKey(displayName string) string {
	return fmt.Sprintf("%s:idx:player_name:%s", keyPrefix, displayName)
}

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

package room

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mcoot/handgame/internal/dependencies/clock"
	"github.com/mcoot/handgame/internal/dependencies/random"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/storage"
)

const (
	// RoomIDLength is the length of generated room IDs
	RoomIDLength = 5
	// RoomIDAlphabet is the characters used in room IDs
	RoomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Controller manages room membership
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger

	// guards read-modify-write of room membership
	mu sync.Mutex
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateRoom creates a room with the given player as its first member
func (c *Controller) CreateRoom(ctx context.Context, playerID model.PlayerID, name string) (*model.Room, error) {
	if _, err := c.storage.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = model.DefaultRoomName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Generate unique room ID
	var id model.RoomID
	for {
		id = model.RoomID(c.random.String(RoomIDLength, RoomIDAlphabet))
		exists, err := c.storage.RoomExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	now := c.clock.Now()
	room := &model.Room{
		ID:        id,
		Name:      name,
		Players:   []model.PlayerID{playerID},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.String("player_id", string(playerID)),
	)
	return room, nil
}

// GetRoom retrieves a room by ID
func (c *Controller) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, id)
}

// JoinRoom adds a player to a room. Joining a room the player is already in
// returns the room unchanged.
func (c *Controller) JoinRoom(ctx context.Context, id model.RoomID, playerID model.PlayerID) (*model.Room, error) {
	if _, err := c.storage.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	if room.HasPlayer(playerID) {
		return room, nil
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}

	room.Players = append(room.Players, playerID)
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	c.logger.Info("player joined room",
		slog.String("room_id", string(id)),
		slog.String("player_id", string(playerID)),
		slog.Int("player_count", len(room.Players)),
	)
	return room, nil
}

// IsMember reports whether a player belongs to a room
func (c *Controller) IsMember(ctx context.Context, id model.RoomID, playerID model.PlayerID) (bool, error) {
	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		return false, err
	}
	return room.HasPlayer(playerID), nil
}

// LeaveRoom removes a player from a room, deleting the room once it is empty
func (c *Controller) LeaveRoom(ctx context.Context, id model.RoomID, playerID model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		return err
	}

	idx := slices.Index(room.Players, playerID)
	if idx < 0 {
		return model.ErrNotInRoom
	}
	room.Players = slices.Delete(room.Players, idx, idx+1)

	if len(room.Players) == 0 {
		c.logger.Info("room closed", slog.String("room_id", string(id)))
		return c.storage.DeleteRoom(ctx, id)
	}

	room.UpdatedAt = c.clock.Now()
	return c.storage.SaveRoom(ctx, room)
}

package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/handgame/internal/dependencies/clock"
	"github.com/mcoot/handgame/internal/model"
)

// RoomLeaver releases a player's seat once their connection is gone
type RoomLeaver interface {
	LeaveRoom(ctx context.Context, roomID model.RoomID, playerID model.PlayerID) error
}

// HubManager manages hubs for all rooms
type HubManager struct {
	hubs    map[model.RoomID]*Hub
	mu      sync.Mutex
	rooms   RoomLeaver
	clock   clock.Clock
	metrics *Metrics
	logger  *slog.Logger
}

// NewHubManager creates a new HubManager. rooms may be nil.
func NewHubManager(rooms RoomLeaver, clk clock.Clock, metrics *Metrics, logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:    make(map[model.RoomID]*Hub),
		rooms:   rooms,
		clock:   clk,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "realtime")),
	}
}

// GetOrCreateHub returns the hub for a room, starting one if needed
func (m *HubManager) GetOrCreateHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}

	hub := NewHub(roomID, m.clock, m.metrics, m.logger)
	hub.onLeave = m.leaveRoom
	hub.onEmpty = m.release
	m.hubs[roomID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if none is running
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[roomID]
}

// HubCount returns the number of running hubs
func (m *HubManager) HubCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// Serve attaches a client to its room's hub and runs its pumps. It blocks
// until the connection ends.
func (m *HubManager) Serve(roomID model.RoomID, c *Client) {
	var hub *Hub
	for {
		hub = m.GetOrCreateHub(roomID)
		if hub.Register(c) {
			break
		}
	}

	go c.writePump()
	c.readPump(hub)
}

// Shutdown stops every hub and disconnects all players
func (m *HubManager) Shutdown() {
	m.mu.Lock()
	hubs := make([]*Hub, 0, len(m.hubs))
	for id, hub := range m.hubs {
		hubs = append(hubs, hub)
		delete(m.hubs, id)
	}
	m.mu.Unlock()

	for _, hub := range hubs {
		hub.Close()
		<-hub.Done()
	}
	m.logger.Info("realtime hubs stopped", slog.Int("count", len(hubs)))
}

// release drops an empty hub from the registry
func (m *HubManager) release(h *Hub) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hubs[h.roomID] == h {
		delete(m.hubs, h.roomID)
	}
	return true
}

func (m *HubManager) leaveRoom(roomID model.RoomID, playerID model.PlayerID) {
	if m.rooms == nil {
		return
	}
	err := m.rooms.LeaveRoom(context.Background(), roomID, playerID)
	if err != nil && !errors.Is(err, model.ErrNotInRoom) && !errors.Is(err, model.ErrRoomNotFound) {
		m.logger.Warn("failed to release room seat",
			slog.String("room_id", string(roomID)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()),
		)
	}
}

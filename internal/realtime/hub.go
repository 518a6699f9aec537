// Package realtime is the authority side of the game protocol: one hub per
// room relays moves, resolves rounds and broadcasts the outcome.
package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/handgame/internal/dependencies/clock"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/protocol"
	"github.com/mcoot/handgame/internal/services/game"
)

type inboundFrame struct {
	client *Client
	data   []byte
}

// Hub serializes everything that happens in one room
type Hub struct {
	roomID  model.RoomID
	table   *game.Table
	clients map[model.PlayerID]*Client
	clock   clock.Clock
	metrics *Metrics
	logger  *slog.Logger

	// onLeave runs on the hub goroutine after a player disconnects.
	// onEmpty decides whether the hub stops once the last player has left.
	onLeave func(roomID model.RoomID, playerID model.PlayerID)
	onEmpty func(h *Hub) bool

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	quit       chan struct{}
	quitOnce   sync.Once
	done       chan struct{}
}

// NewHub creates a hub for a room. Call Run to start it.
func NewHub(roomID model.RoomID, clk clock.Clock, metrics *Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:     roomID,
		table:      game.NewTable(),
		clients:    make(map[model.PlayerID]*Client),
		clock:      clk,
		metrics:    metrics,
		logger:     logger.With(slog.String("room_id", string(roomID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	defer close(h.done)
	h.logger.Info("hub started")

	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)

		case c := <-h.unregister:
			if h.handleUnregister(c) {
				h.logger.Info("hub stopped", slog.String("reason", "empty"))
				return
			}

		case f := <-h.inbound:
			if h.clients[f.client.PlayerID()] != f.client {
				continue
			}
			h.handleFrame(f.client, f.data)

		case <-h.quit:
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
				h.metrics.ConnectedClients.Dec()
			}
			h.logger.Info("hub stopped", slog.String("reason", "shutdown"))
			return
		}
	}
}

// Register adds a client. It returns false if the hub has already stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Inbound queues a frame from a client. It returns false once the hub has stopped.
func (h *Hub) Inbound(c *Client, data []byte) bool {
	select {
	case h.inbound <- inboundFrame{client: c, data: data}:
		return true
	case <-h.done:
		return false
	}
}

// Close asks the hub to disconnect everyone and stop
func (h *Hub) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// Done is closed once the hub has stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) handleRegister(c *Client) {
	id := c.PlayerID()
	if _, ok := h.clients[id]; ok {
		h.sendTo(c, protocol.ServerError{Message: "already connected to this room"})
		close(c.send)
		return
	}
	if err := h.table.Seat(id, c.player.DisplayName); err != nil {
		h.sendTo(c, protocol.ServerError{Message: "room is full"})
		close(c.send)
		return
	}

	c.connectedAt = h.clock.Now()
	h.clients[id] = c
	h.metrics.ConnectedClients.Inc()
	h.logger.Info("player connected",
		slog.String("player_id", string(id)),
		slog.Int("total_clients", len(h.clients)),
	)

	if h.table.Full() {
		h.broadcast(protocol.GameConnected{
			Message:   "Both players connected. Make your move!",
			HasResult: h.table.HasResult(),
		})
	}
}

// handleUnregister reports whether the hub should stop
func (h *Hub) handleUnregister(c *Client) bool {
	id := c.PlayerID()
	if h.clients[id] != c {
		return false
	}

	delete(h.clients, id)
	close(c.send)
	h.table.Leave(id)
	h.metrics.ConnectedClients.Dec()
	connected := h.clock.Since(c.connectedAt)
	h.metrics.ConnectionDuration.Observe(connected.Seconds())
	h.logger.Info("player disconnected",
		slog.String("player_id", string(id)),
		slog.Duration("connection_duration", connected),
		slog.Int("total_clients", len(h.clients)),
	)

	h.broadcast(protocol.PlayerDisconnected{
		Message: fmt.Sprintf("%s left the game", c.player.DisplayName),
	})

	if h.onLeave != nil {
		h.onLeave(h.roomID, id)
	}
	if len(h.clients) == 0 && h.onEmpty != nil {
		return h.onEmpty(h)
	}
	return false
}

func (h *Hub) handleFrame(c *Client, data []byte) {
	msg, err := protocol.DecodeOutbound(data)
	if err != nil {
		reason := ReasonMalformed
		if errors.Is(err, protocol.ErrUnknownKind) {
			reason = ReasonUnknown
		}
		h.reject(c, reason, "could not understand message", err)
		return
	}

	switch m := msg.(type) {
	case protocol.SubmitMove:
		h.handleSubmit(c, m.Move)
	case protocol.ReadyForNextRound:
		h.handleReady(c)
	}
}

func (h *Hub) handleSubmit(c *Client, move model.Move) {
	count, result, err := h.table.Submit(c.PlayerID(), move)
	switch {
	case errors.Is(err, model.ErrAlreadySubmitted):
		h.reject(c, ReasonDuplicate, "move already submitted this round", err)
		return
	case errors.Is(err, model.ErrInvalidMove):
		h.reject(c, ReasonInvalid, "invalid move", err)
		return
	case err != nil:
		h.reject(c, ReasonOutOfOrder, err.Error(), err)
		return
	}

	h.broadcast(protocol.MoveReceived{MovesCount: count})
	if result == nil {
		return
	}

	h.metrics.RoundsResolved.Inc()
	h.logger.Info("round resolved", slog.String("winner", result.Winner))
	h.broadcast(protocol.GameResult{Result: *result})
}

func (h *Hub) handleReady(c *Client) {
	reset, err := h.table.Ready(c.PlayerID())
	if err != nil {
		h.reject(c, ReasonOutOfOrder, err.Error(), err)
		return
	}
	if reset {
		h.broadcast(protocol.GameReset{Message: "New round started. Make your move!"})
	}
}

func (h *Hub) reject(c *Client, reason, message string, err error) {
	h.metrics.FramesRejected.WithLabelValues(reason).Inc()
	h.logger.Warn("frame rejected",
		slog.String("player_id", string(c.PlayerID())),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
	h.sendTo(c, protocol.ServerError{Message: message})
}

func (h *Hub) broadcast(msg protocol.Inbound) {
	data, err := protocol.EncodeInbound(msg)
	if err != nil {
		h.logger.Error("failed to encode message", slog.String("error", err.Error()))
		return
	}
	for _, c := range h.clients {
		h.deliver(c, data)
	}
}

func (h *Hub) sendTo(c *Client, msg protocol.Inbound) {
	data, err := protocol.EncodeInbound(msg)
	if err != nil {
		h.logger.Error("failed to encode message", slog.String("error", err.Error()))
		return
	}
	h.deliver(c, data)
}

func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("message dropped - client buffer full",
			slog.String("player_id", string(c.PlayerID())))
	}
}

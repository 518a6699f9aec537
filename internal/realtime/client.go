package realtime

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/handgame/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size accepted from a player
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 16
)

// Client is one player's websocket connection to a room hub
type Client struct {
	conn        *websocket.Conn
	player      model.Player
	send        chan []byte
	connectedAt time.Time // set by the hub on registration
	logger      *slog.Logger
}

// NewClient wraps an upgraded connection for the given player
func NewClient(conn *websocket.Conn, player model.Player, logger *slog.Logger) *Client {
	return &Client{
		conn:        conn,
		player:      player,
		send:        make(chan []byte, sendBufferSize),
		logger:      logger.With(slog.String("player_id", string(player.ID))),
	}
}

// PlayerID returns the connected player's ID
func (c *Client) PlayerID() model.PlayerID {
	return c.player.ID
}

// readPump forwards frames to the hub until the connection fails
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		if !hub.Inbound(c, data) {
			return
		}
	}
}

// writePump drains the send queue; the hub closes it to end the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

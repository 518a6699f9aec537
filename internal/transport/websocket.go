// Package transport carries opaque frames between a player session and the
// game authority over a websocket connection.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Errors
var (
	ErrNotConnected = errors.New("transport not connected")
	ErrSendBuffer   = errors.New("send buffer full")
	ErrDialFailed   = errors.New("dial failed")
)

// Event is a discrete change surfaced by the adapter
type Event interface {
	isEvent()
}

// Opened is emitted once after a successful dial
type Opened struct{}

// Frame is one text message received from the peer
type Frame struct {
	Data []byte
}

// Closed is the last event. Err is nil for a normal closure.
type Closed struct {
	Err error
}

func (Opened) isEvent() {}
func (Frame) isEvent()  {}
func (Closed) isEvent() {}

// Config holds websocket tuning
type Config struct {
	BaseURL          string
	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PongWait         time.Duration
	PingPeriod       time.Duration
	MaxMessageSize   int64
	SendBuffer       int
}

// DefaultConfig returns the default tuning for the given game service URL
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:          baseURL,
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		PingPeriod:       54 * time.Second,
		MaxMessageSize:   4096,
		SendBuffer:       16,
	}
}

// Endpoint builds the websocket URL for a room and player. http and https
// base URLs are mapped to ws and wss.
func Endpoint(baseURL, roomID, userID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = u.Path + "/ws/" + url.PathEscape(roomID) + "/" + url.PathEscape(userID)
	return u.String(), nil
}

// Adapter owns one websocket connection scoped to a room and player
type Adapter struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *slog.Logger

	events   chan Event
	send     chan []byte
	done     chan struct{}
	readDone chan struct{}

	mu        sync.Mutex
	conn      *websocket.Conn
	open      bool
	closeOnce sync.Once
}

// New creates an adapter; nothing is dialed until Dial is called
func New(cfg Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger:   logger.With(slog.String("component", "transport")),
		events:   make(chan Event, 16),
		send:     make(chan []byte, cfg.SendBuffer),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
}

// Events returns the stream of transport events. It is closed after Closed.
func (a *Adapter) Events() <-chan Event {
	return a.events
}

// Dial connects to the game service for the given room and player
func (a *Adapter) Dial(ctx context.Context, roomID, userID string) error {
	endpoint, err := Endpoint(a.cfg.BaseURL, roomID, userID)
	if err != nil {
		return err
	}

	conn, resp, err := a.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: %s: status %d: %w", ErrDialFailed, endpoint, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: %s: %w", ErrDialFailed, endpoint, err)
	}

	a.mu.Lock()
	select {
	case <-a.done:
		a.mu.Unlock()
		_ = conn.Close()
		return ErrNotConnected
	default:
	}
	a.conn = conn
	a.open = true
	a.mu.Unlock()

	a.logger.Info("connected", slog.String("endpoint", endpoint))
	a.events <- Opened{}

	go a.readPump(conn)
	go a.writePump(conn)
	return nil
}

// Send queues a frame for the peer
func (a *Adapter) Send(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.open {
		return ErrNotConnected
	}
	select {
	case a.send <- data:
		return nil
	default:
		return ErrSendBuffer
	}
}

// Close sends a normal closure frame and tears the connection down
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.open = false
		close(a.done)
		a.mu.Unlock()
	})
	return nil
}

// markClosed stops Send from queueing frames nobody will write
func (a *Adapter) markClosed() {
	a.mu.Lock()
	a.open = false
	a.mu.Unlock()
}

func (a *Adapter) closing() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

func (a *Adapter) emit(ev Event) bool {
	select {
	case a.events <- ev:
		return true
	case <-a.done:
		return false
	}
}

func (a *Adapter) readPump(conn *websocket.Conn) {
	var cause error
	defer func() {
		a.markClosed()
		close(a.readDone)
		_ = conn.Close()

		if !a.emit(Closed{Err: cause}) {
			select {
			case a.events <- Closed{Err: cause}:
			default:
			}
		}
		close(a.events)
	}()

	conn.SetReadLimit(a.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(a.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(a.cfg.PongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !a.closing() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cause = err
				a.logger.Warn("connection lost", slog.String("error", err.Error()))
			}
			return
		}
		if !a.emit(Frame{Data: data}) {
			return
		}
	}
}

func (a *Adapter) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(a.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data := <-a.send:
			_ = conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				a.logger.Warn("write failed", slog.String("error", err.Error()))
				a.markClosed()
				_ = conn.Close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				a.markClosed()
				_ = conn.Close()
				return
			}

		case <-a.done:
			_ = conn.SetWriteDeadline(time.Now().Add(a.cfg.WriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
			return

		case <-a.readDone:
			return
		}
	}
}

// Package protocol defines the tagged JSON messages exchanged between a
// player session and the game authority over the realtime connection.
package protocol

import "github.com/mcoot/handgame/internal/model"

// Kind is the discriminant carried in the "type" field of every frame
type Kind string

const (
	// Authority -> client
	KindGameConnected      Kind = "game_connected"
	KindMoveReceived       Kind = "move_received"
	KindGameResult         Kind = "game_result"
	KindGameReset          Kind = "game_reset"
	KindPlayerDisconnected Kind = "player_disconnected"
	KindError              Kind = "error"

	// Client -> authority
	KindSubmitMove        Kind = "submit_move"
	KindReadyForNextRound Kind = "ready_for_next_round"
)

// Inbound is a message sent by the authority to a player session.
// The set of implementations is closed to this package.
type Inbound interface {
	Kind() Kind
	isInbound()
}

// Outbound is a message sent by a player session to the authority.
// The set of implementations is closed to this package.
type Outbound interface {
	Kind() Kind
	isOutbound()
}

// GameConnected marks that both players are present in the room
type GameConnected struct {
	Message   string
	HasResult bool // a result from a previous round is still on record
}

// MoveReceived reports that a move arrived from either side, never which one
type MoveReceived struct {
	MovesCount int
}

// GameResult carries the authority's verdict for the round
type GameResult struct {
	Result model.RoundResult
}

// GameReset opens a new round once both players are ready
type GameReset struct {
	Message string
}

// PlayerDisconnected reports that the other player left the room
type PlayerDisconnected struct {
	Message string
}

// ServerError is a diagnostic from the authority about a rejected frame
type ServerError struct {
	Message string
}

// SubmitMove sends the local player's secret choice
type SubmitMove struct {
	Move model.Move
}

// ReadyForNextRound opts the local player into another round
type ReadyForNextRound struct{}

func (GameConnected) Kind() Kind      { return KindGameConnected }
func (MoveReceived) Kind() Kind       { return KindMoveReceived }
func (GameResult) Kind() Kind         { return KindGameResult }
func (GameReset) Kind() Kind          { return KindGameReset }
func (PlayerDisconnected) Kind() Kind { return KindPlayerDisconnected }
func (ServerError) Kind() Kind        { return KindError }
func (SubmitMove) Kind() Kind         { return KindSubmitMove }
func (ReadyForNextRound) Kind() Kind  { return KindReadyForNextRound }

func (GameConnected) isInbound()      {}
func (MoveReceived) isInbound()       {}
func (GameResult) isInbound()         {}
func (GameReset) isInbound()          {}
func (PlayerDisconnected) isInbound() {}
func (ServerError) isInbound()        {}

func (SubmitMove) isOutbound()        {}
func (ReadyForNextRound) isOutbound() {}

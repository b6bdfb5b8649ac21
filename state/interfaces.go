// state/interfaces.go
package state

import "github.com/wfunc/monopoly/game"

// Player is a connection acting in a room.
type Player interface {
	GetID() string
	GetPlayerID() string
	Send(msgID uint16, data []byte) error
}

// ResultRecorder stores the outcome of a finished game.
type ResultRecorder interface {
	RecordGame(g *game.State) error
}

// RoomContext defines the interface that a Room must implement to be managed by the state machine.
// This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
	Game() *game.State
	Roller() game.Roller
	// RecordResult hands a finished game to the results store once the
	// current action has released the room.
	RecordResult(g *game.State)
	AddPlayer(p Player)
	// RemovePlayer drops every connection acting for the identity.
	RemovePlayer(playerID string)
	ChangeState(newState State) error
	Broadcast(msgID uint16, data []byte) error
}

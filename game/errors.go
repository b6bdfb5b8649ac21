package game

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameNotStarted     = errors.New("game has not started")
	ErrGameOver           = errors.New("game is over")
	ErrRoomFull           = errors.New("room is full")
	ErrNotHost            = errors.New("only host can start the game")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrPlayerBankrupt     = errors.New("you are bankrupt")
	ErrPlayerNotFound     = errors.New("player not in room")
	ErrAlreadyJoined      = errors.New("already joined this room")

	// ErrCannotPurchase is wrapped by every purchase rejection.
	ErrCannotPurchase = errors.New("cannot purchase")
	ErrNotPurchasable = fmt.Errorf("%w: cannot buy this space", ErrCannotPurchase)
	ErrAlreadyOwned   = fmt.Errorf("%w: property already owned", ErrCannotPurchase)
	ErrCannotAfford   = fmt.Errorf("%w: not enough money", ErrCannotPurchase)
)

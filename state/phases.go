package state

import (
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/network"
)

const (
	PhaseWaiting  = "waiting"
	PhasePlaying  = "playing"
	PhaseFinished = "finished"
)

// WaitingState 等待玩家加入，房主可以开始游戏
type WaitingState struct {
	RoomStateBase
}

// NewWaitingState creates a new waiting state.
func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{RoomStateBase{ID: PhaseWaiting, Room: room}}
}

func (s *WaitingState) HandleAction(player Player, action Action) error {
	switch action.MsgID {
	case network.MsgTypeJoinRoom:
		return s.join(player, action.PlayerName)
	case network.MsgTypeStartGame:
		if err := s.Room.Game().Start(player.GetPlayerID()); err != nil {
			return err
		}
		return s.Room.ChangeState(NewPlayingState(s.Room))
	case network.MsgTypeLeaveRoom:
		_, err := s.leave(player)
		return err
	case network.MsgTypeRollDice, network.MsgTypeBuyProperty, network.MsgTypeEndTurn:
		return game.ErrGameNotStarted
	}
	return ErrUnknownAction
}

// PlayingState 游戏进行状态
type PlayingState struct {
	RoomStateBase
}

func NewPlayingState(room RoomContext) *PlayingState {
	return &PlayingState{RoomStateBase{ID: PhasePlaying, Room: room}}
}

func (s *PlayingState) OnEnter() {
	logger.Log.Infof("Room %s started with %d players", s.Room.GetID(), len(s.Room.Game().Players))
	s.broadcastJSON(network.MsgTypeGameStarted, s.Room.Game())
	s.systemMessage("🎮 Game started! Good luck everyone!")
}

func (s *PlayingState) HandleAction(player Player, action Action) error {
	g := s.Room.Game()
	id := player.GetPlayerID()

	switch action.MsgID {
	case network.MsgTypeJoinRoom:
		return s.join(player, action.PlayerName)
	case network.MsgTypeStartGame:
		return g.Start(id)

	case network.MsgTypeRollDice:
		dice, err := g.RollDice(id, s.Room.Roller())
		if err != nil {
			return err
		}
		s.broadcastJSON(network.MsgTypeDiceRolled, network.DiceRolledNotice{Dice: dice, Game: g})
		return nil

	case network.MsgTypeBuyProperty:
		if _, err := g.BuyProperty(id); err != nil {
			return err
		}
		s.broadcastJSON(network.MsgTypeGameUpdate, g)
		return nil

	case network.MsgTypeEndTurn:
		winner, err := g.EndTurn(id)
		if err != nil {
			return err
		}
		// 游戏结束时先宣布胜者，再同步状态
		if winner != nil {
			if err := s.Room.ChangeState(NewFinishedState(s.Room)); err != nil {
				return err
			}
		}
		s.broadcastJSON(network.MsgTypeGameUpdate, g)
		return nil

	case network.MsgTypeLeaveRoom:
		winner, err := s.leave(player)
		if err != nil {
			return err
		}
		if winner != nil {
			return s.Room.ChangeState(NewFinishedState(s.Room))
		}
		return nil
	}
	return ErrUnknownAction
}

// FinishedState 游戏结束，只允许离开
type FinishedState struct {
	RoomStateBase
}

func NewFinishedState(room RoomContext) *FinishedState {
	return &FinishedState{RoomStateBase{ID: PhaseFinished, Room: room}}
}

func (s *FinishedState) OnEnter() {
	g := s.Room.Game()
	winner := g.WinnerPlayer()
	if winner == nil {
		return
	}
	logger.Log.Infof("Room %s finished, winner %s", s.Room.GetID(), winner.Name)

	s.Room.RecordResult(g.Clone())
	s.broadcastJSON(network.MsgTypeGameOver, network.GameOverNotice{Winner: winner})
	s.systemMessage("🏆 %s wins the game!", winner.Name)
}

func (s *FinishedState) HandleAction(player Player, action Action) error {
	switch action.MsgID {
	case network.MsgTypeJoinRoom, network.MsgTypeStartGame:
		return game.ErrGameAlreadyStarted
	case network.MsgTypeRollDice, network.MsgTypeBuyProperty, network.MsgTypeEndTurn:
		return game.ErrGameOver
	case network.MsgTypeLeaveRoom:
		_, err := s.leave(player)
		return err
	}
	return ErrUnknownAction
}

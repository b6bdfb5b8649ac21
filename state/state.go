package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/network"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	GetID() string
	HandleAction(player Player, action Action) error
}

// Action is one decoded intent. PlayerName is only set for joins.
type Action struct {
	MsgID      uint16
	PlayerName string
}

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	ErrUnknownAction        = errors.New("unknown action")
)

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	if conditions, exists := sm.transitions[currentID]; exists {
		if condition, exists := conditions[newID]; exists {
			if condition != nil && !condition() {
				return fmt.Errorf("%s -> %s: %w", currentID, newID, ErrTransitionNotAllowed)
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {}

func (s *RoomStateBase) OnExit() {}

func (s *RoomStateBase) HandleAction(player Player, action Action) error {
	return ErrUnknownAction
}

func (s *RoomStateBase) broadcastJSON(msgID uint16, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Error marshalling %s for room %s: %v", network.MsgName(msgID), s.Room.GetID(), err)
		return
	}
	if err := s.Room.Broadcast(msgID, data); err != nil {
		logger.Log.Warnf("Broadcast %s to room %s failed: %v", network.MsgName(msgID), s.Room.GetID(), err)
	}
}

func (s *RoomStateBase) systemMessage(format string, args ...interface{}) {
	s.broadcastJSON(network.MsgTypeSystemMessage, network.SystemMessage{Text: fmt.Sprintf(format, args...)})
}

func (s *RoomStateBase) join(player Player, name string) error {
	g := s.Room.Game()
	if err := g.Join(player.GetPlayerID(), name); err != nil {
		return err
	}
	s.Room.AddPlayer(player)
	logger.Log.Infof("Player %s (%s) joined room %s", name, player.GetPlayerID(), s.Room.GetID())
	s.broadcastJSON(network.MsgTypeGameUpdate, g)
	s.systemMessage("%s joined the game!", name)
	return nil
}

// leave removes the player and returns the winner if the departure decided
// the game.
func (s *RoomStateBase) leave(player Player) (*game.Player, error) {
	g := s.Room.Game()
	removed, winner, err := g.Leave(player.GetPlayerID())
	if err != nil {
		return nil, err
	}
	s.Room.RemovePlayer(player.GetPlayerID())
	logger.Log.Infof("Player %s left room %s", removed.Name, s.Room.GetID())
	if g.Empty() {
		return nil, nil
	}
	s.broadcastJSON(network.MsgTypePlayerLeft, network.PlayerLeftNotice{PlayerName: removed.Name, Game: g})
	s.systemMessage("%s left the game", removed.Name)
	return winner, nil
}

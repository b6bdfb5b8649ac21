package room

import (
	"encoding/json"
	"errors"
	"regexp"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/state"
)

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	mu       sync.Mutex
	messages []broadcastMessage
}

type broadcastMessage struct {
	roomID string
	msgID  uint16
	data   []byte
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, broadcastMessage{roomID, msgID, data})
	return nil
}

func (m *MockBroadcaster) count(msgID uint16) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.msgID == msgID {
			n++
		}
	}
	return n
}

func (m *MockBroadcaster) last(msgID uint16) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].msgID == msgID {
			return m.messages[i].data
		}
	}
	return nil
}

// tail returns the ids of the last n messages.
func (m *MockBroadcaster) tail(n int) []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []uint16{}
	for i := max(len(m.messages)-n, 0); i < len(m.messages); i++ {
		ids = append(ids, m.messages[i].msgID)
	}
	return ids
}

// MockPlayer is a test double for state.Player. Connections of the same
// identity share id and differ by session.
type MockPlayer struct {
	id      string
	session string
	sent    []uint16
}

func (p *MockPlayer) GetID() string {
	if p.session != "" {
		return p.session
	}
	return "session-" + p.id
}
func (p *MockPlayer) GetPlayerID() string { return p.id }
func (p *MockPlayer) Send(msgID uint16, data []byte) error {
	p.sent = append(p.sent, msgID)
	return nil
}

// MockRecorder keeps recorded games and notes whether room was still
// locked while recording.
type MockRecorder struct {
	games  []*game.State
	room   *Room
	locked bool
}

func (r *MockRecorder) RecordGame(g *game.State) error {
	if r.room != nil {
		if r.room.mu.TryLock() {
			r.room.mu.Unlock()
		} else {
			r.locked = true
		}
	}
	r.games = append(r.games, g)
	return nil
}

func newTestManager(rolls ...game.Dice) (*Manager, *MockRecorder) {
	recorder := &MockRecorder{}
	return NewRoomManager(game.NewSequenceRoller(rolls...), recorder), recorder
}

func phase(r *Room) string {
	return r.StateMachine.GetCurrentState().GetID()
}

func TestRoomManager_CreateAndGetRoom(t *testing.T) {
	manager, _ := newTestManager()
	host := &MockPlayer{id: "p1"}

	room := manager.CreateRoom(host, "Alice", &MockBroadcaster{})
	if room == nil {
		t.Fatal("CreateRoom should not return nil")
	}
	if !regexp.MustCompile(`^[0-9A-F]{6}$`).MatchString(room.ID) {
		t.Errorf("Unexpected room code %q", room.ID)
	}

	retrieved, exists := manager.GetRoom(" " + room.ID + " ")
	if !exists || retrieved != room {
		t.Fatal("GetRoom should find the created room by its normalized code")
	}
	if _, ok := room.GetPlayer(host.GetID()); !ok {
		t.Error("Host connection should be in the room")
	}
	if room.Game().Host().Name != "Alice" {
		t.Errorf("Expected host Alice, got %s", room.Game().Host().Name)
	}
	if phase(room) != state.PhaseWaiting {
		t.Errorf("Expected phase waiting, got %s", phase(room))
	}
}

func TestRoom_AnnounceCreated(t *testing.T) {
	manager, _ := newTestManager()
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	room := manager.CreateRoom(host, "Alice", bc)

	if err := room.AnnounceCreated(host); err != nil {
		t.Fatalf("AnnounceCreated failed: %v", err)
	}
	if len(host.sent) != 1 || host.sent[0] != network.MsgTypeRoomCreated {
		t.Errorf("Expected roomCreated to the host, got %v", host.sent)
	}
	var msg network.SystemMessage
	json.Unmarshal(bc.last(network.MsgTypeSystemMessage), &msg)
	if msg.Text != "Alice created the room!" {
		t.Errorf("Unexpected system message %q", msg.Text)
	}
}

func TestRoom_JoinAndStart(t *testing.T) {
	manager, _ := newTestManager()
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	guest := &MockPlayer{id: "p2"}
	room := manager.CreateRoom(host, "Alice", bc)

	if err := room.Handle(guest, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"}); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(room.GetSessions()) != 2 {
		t.Errorf("Expected 2 connections, got %d", len(room.GetSessions()))
	}
	if bc.count(network.MsgTypeGameUpdate) != 1 {
		t.Errorf("Expected one gameUpdate after join")
	}

	err := room.Handle(guest, state.Action{MsgID: network.MsgTypeStartGame})
	if !errors.Is(err, game.ErrNotHost) {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}
	if err := room.Handle(host, state.Action{MsgID: network.MsgTypeRollDice}); !errors.Is(err, game.ErrGameNotStarted) {
		t.Errorf("Expected ErrGameNotStarted, got %v", err)
	}

	if err := room.Handle(host, state.Action{MsgID: network.MsgTypeStartGame}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if phase(room) != state.PhasePlaying {
		t.Errorf("Expected phase playing, got %s", phase(room))
	}
	if bc.count(network.MsgTypeGameStarted) != 1 {
		t.Error("Expected one gameStarted broadcast")
	}

	late := &MockPlayer{id: "p3"}
	if err := room.Handle(late, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Carol"}); !errors.Is(err, game.ErrGameAlreadyStarted) {
		t.Errorf("Expected ErrGameAlreadyStarted, got %v", err)
	}
	if _, ok := room.GetPlayer(late.GetID()); ok {
		t.Error("Rejected join must not add the connection")
	}
}

func TestRoom_RollBroadcastsDice(t *testing.T) {
	manager, _ := newTestManager(game.Dice{Die1: 1, Die2: 2})
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	room := manager.CreateRoom(host, "Alice", bc)
	room.Handle(&MockPlayer{id: "p2"}, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"})
	room.Handle(host, state.Action{MsgID: network.MsgTypeStartGame})

	if err := room.Handle(host, state.Action{MsgID: network.MsgTypeRollDice}); err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	var notice struct {
		Dice game.Dice  `json:"dice"`
		Game game.State `json:"game"`
	}
	if err := json.Unmarshal(bc.last(network.MsgTypeDiceRolled), &notice); err != nil {
		t.Fatalf("Bad diceRolled payload: %v", err)
	}
	if notice.Dice.Total() != 3 || notice.Game.Players[0].Position != 3 {
		t.Errorf("Unexpected diceRolled notice: %+v", notice.Dice)
	}

	if err := room.Handle(host, state.Action{MsgID: network.MsgTypeBuyProperty}); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if !room.Game().Players[0].Owns(3) {
		t.Error("Expected host to own Baltic Avenue")
	}
}

func TestRoom_GameOverOnce(t *testing.T) {
	manager, recorder := newTestManager(game.Dice{Die1: 2, Die2: 3})
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	guest := &MockPlayer{id: "p2"}
	room := manager.CreateRoom(host, "Alice", bc)
	recorder.room = room
	room.Handle(guest, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"})
	room.Handle(host, state.Action{MsgID: network.MsgTypeStartGame})

	g := room.Game()
	g.Players[0].Money = 40
	g.Players[1].Properties = []int{5, 15}

	room.Handle(host, state.Action{MsgID: network.MsgTypeRollDice})
	if !g.Players[0].Bankrupt {
		t.Fatal("Expected host to be bankrupt")
	}
	if err := room.Handle(host, state.Action{MsgID: network.MsgTypeEndTurn}); err != nil {
		t.Fatalf("EndTurn failed: %v", err)
	}

	if phase(room) != state.PhaseFinished {
		t.Fatalf("Expected phase finished, got %s", phase(room))
	}
	var over network.GameOverNotice
	json.Unmarshal(bc.last(network.MsgTypeGameOver), &over)
	if over.Winner == nil || over.Winner.Name != "Bob" {
		t.Errorf("Expected Bob to win, got %+v", over.Winner)
	}
	want := []uint16{network.MsgTypeGameOver, network.MsgTypeSystemMessage, network.MsgTypeGameUpdate}
	if got := bc.tail(3); !slices.Equal(got, want) {
		t.Errorf("Expected gameOver, systemMessage, gameUpdate; got %v", got)
	}

	if len(recorder.games) != 1 {
		t.Fatalf("Expected one recorded game, got %d", len(recorder.games))
	}
	if recorder.locked {
		t.Error("Result must be recorded after the room is unlocked")
	}
	if recorder.games[0] == g || recorder.games[0].WinnerPlayer().Name != "Bob" {
		t.Error("Expected a snapshot of the finished game")
	}

	if err := room.Handle(guest, state.Action{MsgID: network.MsgTypeEndTurn}); !errors.Is(err, game.ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
	if bc.count(network.MsgTypeGameOver) != 1 {
		t.Errorf("gameOver must be sent exactly once, got %d", bc.count(network.MsgTypeGameOver))
	}
}

func TestManager_LeaveRemovesEmptyRoom(t *testing.T) {
	manager, _ := newTestManager()
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	guest := &MockPlayer{id: "p2"}
	room := manager.CreateRoom(host, "Alice", bc)
	room.Handle(guest, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"})

	if err := manager.Leave(room.ID, host); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if _, exists := manager.GetRoom(room.ID); !exists {
		t.Fatal("Room with a remaining player must stay registered")
	}
	if bc.count(network.MsgTypePlayerLeft) != 1 {
		t.Error("Expected a playerLeft broadcast")
	}
	if room.Game().Host().ID != "p2" {
		t.Errorf("Expected p2 to become host, got %s", room.Game().Host().ID)
	}

	if err := manager.Leave(room.ID, guest); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if _, exists := manager.GetRoom(room.ID); exists {
		t.Error("Empty room should be removed")
	}
	if manager.Count() != 0 {
		t.Errorf("Expected 0 rooms, got %d", manager.Count())
	}
	if err := room.Handle(guest, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"}); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound on a closed room, got %v", err)
	}
	if err := manager.Leave(room.ID, guest); !errors.Is(err, game.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestManager_LeaveDropsEverySessionOfIdentity(t *testing.T) {
	manager, _ := newTestManager()
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	room := manager.CreateRoom(host, "Alice", bc)
	first := &MockPlayer{id: "p2", session: "s-first"}
	room.Handle(first, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"})

	// a second connection of the same identity leaves the seat
	second := &MockPlayer{id: "p2", session: "s-second"}
	if err := manager.Leave(room.ID, second); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if _, ok := room.GetPlayer(first.GetID()); ok {
		t.Error("Every connection of the departed identity should leave the room")
	}
	if len(room.GetSessions()) != 1 {
		t.Errorf("Expected only the host to remain, got %d", len(room.GetSessions()))
	}
	if err := manager.Leave(room.ID, first); !errors.Is(err, game.ErrPlayerNotFound) {
		t.Errorf("Expected ErrPlayerNotFound, got %v", err)
	}
}

func TestRoom_ChatUsesSeatName(t *testing.T) {
	manager, _ := newTestManager()
	bc := &MockBroadcaster{}
	host := &MockPlayer{id: "p1"}
	room := manager.CreateRoom(host, "Alice", bc)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	room.Chat(host, "Mallory", "hello", at)
	var msg network.ChatMessage
	json.Unmarshal(bc.last(network.MsgTypeChatMessage), &msg)
	if msg.PlayerName != "Alice" || msg.Message != "hello" || msg.Timestamp != "2024-05-01T12:00:00Z" {
		t.Errorf("Unexpected chat message %+v", msg)
	}

	room.Chat(&MockPlayer{id: "visitor"}, "Visitor", "hi", at)
	json.Unmarshal(bc.last(network.MsgTypeChatMessage), &msg)
	if msg.PlayerName != "Visitor" {
		t.Errorf("Expected declared name for a non-member, got %s", msg.PlayerName)
	}
}

func TestManager_RoomsAndSummary(t *testing.T) {
	manager, _ := newTestManager()
	bc := &MockBroadcaster{}
	a := manager.CreateRoom(&MockPlayer{id: "a"}, "Alice", bc)
	manager.CreateRoom(&MockPlayer{id: "b"}, "Bob", bc)

	rooms := manager.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].ID > rooms[1].ID {
		t.Error("Rooms should be ordered by id")
	}

	summary := a.Summary()
	if summary.RoomID != a.ID || summary.Phase != state.PhaseWaiting || len(summary.Players) != 1 || summary.Players[0] != "Alice" {
		t.Errorf("Unexpected summary %+v", summary)
	}

	manager.RemoveRoom(a.ID)
	if !a.Closed() {
		t.Error("RemoveRoom should close the room")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room, got %d", manager.Count())
	}
}

// room/room.go
package room

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/state"
)

// Room owns one game. Every action runs under mu, including the broadcasts
// it produces, so all members observe the same order.
type Room struct {
	ID           string
	CreatedAt    time.Time
	Players      map[string]state.Player // sessionID -> connection
	StateMachine state.StateMachine
	game         *game.State
	roller       game.Roller
	recorder     state.ResultRecorder
	broadcaster  Broadcaster // Use the interface, not the concrete type
	finished     []*game.State // results waiting for mu to be released
	mu           sync.Mutex
	playerMutex  sync.RWMutex
	closed       bool
}

// NewRoom 创建一个新房间，房主是唯一的玩家
func NewRoom(id string, host state.Player, hostName string, roller game.Roller, recorder state.ResultRecorder, broadcaster Broadcaster) *Room {
	room := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		Players:     map[string]state.Player{host.GetID(): host},
		game:        game.NewState(id, host.GetPlayerID(), hostName),
		roller:      roller,
		recorder:    recorder,
		broadcaster: broadcaster,
	}

	waiting := state.NewWaitingState(room)
	playing := state.NewPlayingState(room)
	finished := state.NewFinishedState(room)

	sm := state.NewBaseStateMachine(waiting)
	sm.AddTransition(waiting, playing, func() bool { return room.game.GameStarted })
	sm.AddTransition(playing, finished, func() bool { return room.game.Winner != "" })
	room.StateMachine = sm

	return room
}

// --- 实现 state.RoomContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Game() *game.State {
	return r.game
}

func (r *Room) Roller() game.Roller {
	return r.roller
}

// RecordResult queues g; Handle stores it after unlocking.
func (r *Room) RecordResult(g *game.State) {
	if r.recorder != nil {
		r.finished = append(r.finished, g)
	}
}

func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

// Broadcast sends a message to all players in the room.
func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

func (r *Room) AddPlayer(p state.Player) {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()
	r.Players[p.GetID()] = p
}

// RemovePlayer drops all sessions of the identity, not just the one that
// asked to leave.
func (r *Room) RemovePlayer(playerID string) {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()
	for sessionID, p := range r.Players {
		if p.GetPlayerID() == playerID {
			delete(r.Players, sessionID)
		}
	}
}

// --- 房间核心逻辑 ---

// GetPlayer 获取单个连接
func (r *Room) GetPlayer(sessionID string) (state.Player, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	player, exists := r.Players[sessionID]
	return player, exists
}

// GetSessions returns a slice of all connections in the room (thread-safe).
func (r *Room) GetSessions() []state.Player {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]state.Player, 0, len(r.Players))
	for _, s := range r.Players {
		sessions = append(sessions, s)
	}
	return sessions
}

// Handle applies one action through the current phase. A result produced
// by the action is stored after the room is unlocked.
func (r *Room) Handle(p state.Player, action state.Action) error {
	finished, err := r.handle(p, action)
	for _, g := range finished {
		if err := r.recorder.RecordGame(g); err != nil {
			logger.Log.Errorf("Failed to record result of room %s: %v", r.ID, err)
		}
	}
	return err
}

func (r *Room) handle(p state.Player, action state.Action) ([]*game.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, game.ErrRoomNotFound
	}
	current := r.StateMachine.GetCurrentState()
	if current == nil {
		return nil, game.ErrRoomNotFound
	}
	err := current.HandleAction(p, action)
	if r.game.Empty() {
		r.closed = true
	}
	finished := r.finished
	r.finished = nil
	return finished, err
}

// AnnounceCreated sends roomCreated to the host and greets the room.
func (r *Room) AnnounceCreated(host state.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(network.RoomCreatedNotice{RoomID: r.ID, Game: r.game})
	if err != nil {
		return err
	}
	if err := host.Send(network.MsgTypeRoomCreated, data); err != nil {
		return err
	}
	hostName := ""
	if p, _ := r.game.Player(host.GetPlayerID()); p != nil {
		hostName = p.Name
	}
	return r.broadcastJSON(network.MsgTypeSystemMessage, network.SystemMessage{Text: hostName + " created the room!"})
}

// Chat relays a message to the room. Seated senders are named by their
// seat; others by the name they declared.
func (r *Room) Chat(sender state.Player, declaredName, message string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return game.ErrRoomNotFound
	}
	name := declaredName
	if p, _ := r.game.Player(sender.GetPlayerID()); p != nil {
		name = p.Name
	}
	logger.Log.Debugf("Chat in %s - %s: %s", r.ID, name, message)
	return r.broadcastJSON(network.MsgTypeChatMessage, network.ChatMessage{
		PlayerName: name,
		Message:    message,
		Timestamp:  at.UTC().Format(time.RFC3339),
	})
}

func (r *Room) broadcastJSON(msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Broadcast(msgID, data)
}

// Closed reports whether the room lost its last player.
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close marks the room so later actions fail with ErrRoomNotFound.
func (r *Room) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Summary is a point-in-time view of a room for listings.
type Summary struct {
	RoomID    string    `json:"roomId"`
	Phase     string    `json:"phase"`
	Players   []string  `json:"players"`
	Started   bool      `json:"gameStarted"`
	Winner    string    `json:"winner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Room) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.game.Players))
	for _, p := range r.game.Players {
		names = append(names, p.Name)
	}
	winner := ""
	if w := r.game.WinnerPlayer(); w != nil {
		winner = w.Name
	}
	return Summary{
		RoomID:    r.ID,
		Phase:     r.StateMachine.GetCurrentState().GetID(),
		Players:   names,
		Started:   r.game.GameStarted,
		Winner:    winner,
		CreatedAt: r.CreatedAt,
	}
}

// --- 房间管理器 ---

// Manager is the room registry. Lock order is room before manager: the
// manager never takes a room lock while holding its own.
type Manager struct {
	rooms    map[string]*Room
	roller   game.Roller
	recorder state.ResultRecorder
	mutex    sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager(roller game.Roller, recorder state.ResultRecorder) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		roller:   roller,
		recorder: recorder,
	}
}

// NormalizeID canonicalizes a user-typed room code.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func newRoomCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// CreateRoom registers a new room with host as its first player.
func (m *Manager) CreateRoom(host state.Player, hostName string, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := newRoomCode()
	for _, taken := m.rooms[id]; taken; _, taken = m.rooms[id] {
		id = newRoomCode()
	}
	room := NewRoom(id, host, hostName, m.roller, m.recorder, broadcaster)
	m.rooms[id] = room
	logger.Log.Infof("Room %s created by %s", id, hostName)
	return room
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	room, exists := m.rooms[NormalizeID(id)]
	if exists {
		delete(m.rooms, room.ID)
	}
	m.mutex.Unlock()

	if exists {
		room.Close()
	}
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[NormalizeID(id)]
	return room, exists
}

// Leave removes p from the room and deletes the room once it is empty.
func (m *Manager) Leave(id string, p state.Player) error {
	room, exists := m.GetRoom(id)
	if !exists {
		return game.ErrRoomNotFound
	}
	err := room.Handle(p, state.Action{MsgID: network.MsgTypeLeaveRoom})
	if room.Closed() {
		m.mutex.Lock()
		if m.rooms[room.ID] == room {
			delete(m.rooms, room.ID)
			logger.Log.Infof("Room %s removed, no players left", room.ID)
		}
		m.mutex.Unlock()
	}
	return err
}

// Rooms returns the registered rooms ordered by id.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mutex.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

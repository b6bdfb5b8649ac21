package network

import "github.com/wfunc/monopoly/game"

// 客户端 -> 服务器
const (
	MsgTypeHeartbeat   = 1
	MsgTypeCreateRoom  = 101
	MsgTypeJoinRoom    = 102
	MsgTypeLeaveRoom   = 103
	MsgTypeStartGame   = 104
	MsgTypeRollDice    = 201
	MsgTypeBuyProperty = 202
	MsgTypeEndTurn     = 203
	MsgTypeSendChat    = 204
)

// 服务器 -> 客户端
const (
	MsgTypeRoomCreated   = 301
	MsgTypeGameUpdate    = 302
	MsgTypeGameStarted   = 303
	MsgTypeDiceRolled    = 304
	MsgTypeGameOver      = 305
	MsgTypePlayerLeft    = 306
	MsgTypeSystemMessage = 307
	MsgTypeChatMessage   = 308
	MsgTypeError         = 309
)

var msgNames = map[uint16]string{
	MsgTypeHeartbeat:     "heartbeat",
	MsgTypeCreateRoom:    "createRoom",
	MsgTypeJoinRoom:      "joinRoom",
	MsgTypeLeaveRoom:     "leaveRoom",
	MsgTypeStartGame:     "startGame",
	MsgTypeRollDice:      "rollDice",
	MsgTypeBuyProperty:   "buyProperty",
	MsgTypeEndTurn:       "endTurn",
	MsgTypeSendChat:      "sendChatMessage",
	MsgTypeRoomCreated:   "roomCreated",
	MsgTypeGameUpdate:    "gameUpdate",
	MsgTypeGameStarted:   "gameStarted",
	MsgTypeDiceRolled:    "diceRolled",
	MsgTypeGameOver:      "gameOver",
	MsgTypePlayerLeft:    "playerLeft",
	MsgTypeSystemMessage: "systemMessage",
	MsgTypeChatMessage:   "chatMessage",
	MsgTypeError:         "error",
}

// MsgName returns the event name of a message id, or "unknown".
func MsgName(msgID uint16) string {
	if name, ok := msgNames[msgID]; ok {
		return name
	}
	return "unknown"
}

// --- inbound payloads ---

type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// RoomRequest is the payload of startGame, rollDice, buyProperty, endTurn
// and leaveRoom.
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type ChatRequest struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// --- outbound notices ---

type RoomCreatedNotice struct {
	RoomID string      `json:"roomId"`
	Game   *game.State `json:"game"`
}

type DiceRolledNotice struct {
	Dice game.Dice   `json:"dice"`
	Game *game.State `json:"game"`
}

type GameOverNotice struct {
	Winner *game.Player `json:"winner"`
}

type PlayerLeftNotice struct {
	PlayerName string      `json:"playerName"`
	Game       *game.State `json:"game"`
}

type SystemMessage struct {
	Text string `json:"text"`
}

type ChatMessage struct {
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}

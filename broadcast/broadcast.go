// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/room"
	"github.com/wfunc/monopoly/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToPlayer(playerID string, msgID uint16, data []byte) error
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

// BroadcastToRoom delivers to every connection in the room. A failed send
// does not stop delivery to the others; the reader side of that connection
// notices the broken socket and runs the disconnect path.
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return game.ErrRoomNotFound
	}

	for _, s := range r.GetSessions() {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Debugf("Send %s to %s in room %s failed: %v", network.MsgName(msgID), s.GetID(), roomID, err)
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Debugf("Send %s to %s failed: %v", network.MsgName(msgID), s.GetID(), err)
		}
	}
	return nil
}

// BroadcastToPlayer reaches every connection the identity holds open.
func (b *RoomBroadcaster) BroadcastToPlayer(playerID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByPlayerID(playerID) {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Debugf("Send %s to %s failed: %v", network.MsgName(msgID), s.GetID(), err)
		}
	}
	return nil
}

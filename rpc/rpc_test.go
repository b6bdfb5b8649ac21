package rpc

import (
	"net/rpc"
	"testing"

	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/persistence"
	"github.com/wfunc/monopoly/room"
	"github.com/wfunc/monopoly/services"
	"github.com/wfunc/monopoly/state"
)

type mockPlayer struct{ id string }

func (p *mockPlayer) GetID() string                        { return "conn-" + p.id }
func (p *mockPlayer) GetPlayerID() string                  { return p.id }
func (p *mockPlayer) Send(msgID uint16, data []byte) error { return nil }

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error { return nil }

func TestAdminService_OverRPC(t *testing.T) {
	results := services.NewResultService(persistence.NewMemory())
	rooms := room.NewRoomManager(game.NewSequenceRoller(), results)

	host, guest := &mockPlayer{"p1"}, &mockPlayer{"p2"}
	r := rooms.CreateRoom(host, "Alice", nopBroadcaster{})
	r.Handle(guest, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: "Bob"})
	r.Handle(host, state.Action{MsgID: network.MsgTypeStartGame})
	r.Handle(guest, state.Action{MsgID: network.MsgTypeLeaveRoom})

	server := NewServer("127.0.0.1:0")
	if err := server.Register(NewAdminService(rooms, results)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer server.Stop()

	client, err := rpc.Dial("tcp", server.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	var list ListRoomsReply
	if err := client.Call("AdminService.ListRooms", &ListRoomsArgs{}, &list); err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(list.Rooms) != 1 || list.Rooms[0].RoomID != r.ID {
		t.Fatalf("Unexpected rooms %+v", list.Rooms)
	}
	if list.Rooms[0].Phase != state.PhaseFinished || list.Rooms[0].Winner != "Alice" {
		t.Errorf("Expected a finished room won by Alice, got %+v", list.Rooms[0])
	}

	var waiting ListRoomsReply
	if err := client.Call("AdminService.ListRooms", &ListRoomsArgs{Phase: state.PhaseWaiting}, &waiting); err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(waiting.Rooms) != 0 {
		t.Errorf("Expected no waiting rooms, got %d", len(waiting.Rooms))
	}

	var stats GetPlayerStatsReply
	if err := client.Call("AdminService.GetPlayerStats", &GetPlayerStatsArgs{Name: "Alice"}, &stats); err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	if stats.Stats.TotalGames != 1 || stats.Stats.Wins != 1 {
		t.Errorf("Unexpected stats %+v", stats.Stats)
	}
}

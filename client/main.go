package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/network"
)

const help = `commands:
  create            create a room
  join <roomId>     join a room
  start             start the game (host only)
  roll | buy | end  play your turn
  leave             leave the room
  say <message>     chat
  quit`

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	packet, err := network.EncodePacket(msgID, data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// show prints one server message in a readable form.
func show(packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeSystemMessage:
		var msg network.SystemMessage
		json.Unmarshal(packet.Data, &msg)
		log.Printf("* %s", msg.Text)
	case network.MsgTypeChatMessage:
		var msg network.ChatMessage
		json.Unmarshal(packet.Data, &msg)
		log.Printf("[%s] %s: %s", msg.Timestamp, msg.PlayerName, msg.Message)
	case network.MsgTypeError:
		var msg network.ErrorNotice
		json.Unmarshal(packet.Data, &msg)
		log.Printf("! %s", msg.Message)
	case network.MsgTypeRoomCreated:
		var msg struct {
			RoomID string `json:"roomId"`
		}
		json.Unmarshal(packet.Data, &msg)
		log.Printf("Room created: %s", msg.RoomID)
	case network.MsgTypeDiceRolled:
		var msg struct {
			Game game.State `json:"game"`
		}
		json.Unmarshal(packet.Data, &msg)
		showState(&msg.Game)
	case network.MsgTypeGameUpdate, network.MsgTypeGameStarted:
		var g game.State
		json.Unmarshal(packet.Data, &g)
		showState(&g)
	case network.MsgTypeGameOver:
		var msg struct {
			Winner game.Player `json:"winner"`
		}
		json.Unmarshal(packet.Data, &msg)
		log.Printf("Game over, %s wins", msg.Winner.Name)
	case network.MsgTypePlayerLeft:
		var msg network.PlayerLeftNotice
		json.Unmarshal(packet.Data, &msg)
		log.Printf("%s left", msg.PlayerName)
	default:
		log.Printf("<- RECV %s: %s", network.MsgName(packet.MsgID), string(packet.Data))
	}
}

func showState(g *game.State) {
	if g.LastAction != "" {
		log.Printf("> %s", g.LastAction)
	}
	for i, p := range g.Players {
		marker := " "
		if g.GameStarted && i == g.CurrentPlayerIndex {
			marker = "*"
		}
		status := ""
		switch {
		case p.Bankrupt:
			status = " (bankrupt)"
		case p.InJail:
			status = " (in jail)"
		}
		log.Printf("%s %-12s $%-5d %-24s %d properties%s", marker, p.Name, p.Money,
			g.Board.Space(p.Position).Name, len(p.Properties), status)
	}
}

func main() {
	addr := flag.String("addr", "localhost:3001", "server address")
	name := flag.String("name", "Player", "display name")
	token := flag.String("token", "", "identity token when the server requires one")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	if *token != "" {
		u.RawQuery = url.Values{"token": {*token}}.Encode()
	}
	log.Printf("Connecting to %s", u.Host)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			show(packet)
		}
	}()

	lines := make(chan string)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- strings.TrimSpace(reader.Text())
		}
		close(lines)
	}()

	heartbeat := time.NewTicker(10 * time.Second)
	defer heartbeat.Stop()

	log.Println(help)
	roomID := ""
	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			if err := send(c, network.MsgTypeHeartbeat, struct{}{}); err != nil {
				log.Println("Write error:", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			cmd, arg, _ := strings.Cut(text, " ")
			room := network.RoomRequest{RoomID: roomID}

			switch cmd {
			case "create":
				err = send(c, network.MsgTypeCreateRoom, network.CreateRoomRequest{PlayerName: *name})
			case "join":
				roomID = strings.ToUpper(strings.TrimSpace(arg))
				err = send(c, network.MsgTypeJoinRoom, network.JoinRoomRequest{RoomID: roomID, PlayerName: *name})
			case "start":
				err = send(c, network.MsgTypeStartGame, room)
			case "roll":
				err = send(c, network.MsgTypeRollDice, room)
			case "buy":
				err = send(c, network.MsgTypeBuyProperty, room)
			case "end":
				err = send(c, network.MsgTypeEndTurn, room)
			case "leave":
				err = send(c, network.MsgTypeLeaveRoom, room)
				roomID = ""
			case "say":
				err = send(c, network.MsgTypeSendChat, network.ChatRequest{RoomID: roomID, PlayerName: *name, Message: arg})
			case "quit":
				return
			case "":
				continue
			default:
				fmt.Println(help)
				continue
			}
			if err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}

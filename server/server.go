package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/monopoly/auth"
	"github.com/wfunc/monopoly/broadcast"
	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/monitor"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/persistence"
	"github.com/wfunc/monopoly/room"
	"github.com/wfunc/monopoly/services"
	"github.com/wfunc/monopoly/session"
	"github.com/wfunc/monopoly/state"
	monopoly_rpc "github.com/wfunc/monopoly/rpc"
)

var (
	ErrNameRequired    = errors.New("player name is required")
	ErrMessageRequired = errors.New("message is required")
)

type GameServer struct {
	addr           string
	heartbeat      time.Duration
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	results        *services.ResultService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	authenticator  auth.Authenticator
	rpcServer      *monopoly_rpc.Server
	httpServer     *http.Server
	now            func() time.Time
	mutex          sync.Mutex
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewGameServer(cfg config.ServerConfig, db persistence.Database, roller game.Roller, authenticator auth.Authenticator) *GameServer {
	if authenticator == nil {
		authenticator = auth.AnonymousAuthenticator{}
	}
	s := &GameServer{
		addr:           cfg.HTTPAddress,
		heartbeat:      cfg.HeartbeatInterval,
		sessionManager: session.NewManager(),
		results:        services.NewResultService(db),
		monitor:        monitor.NewMonitor(cfg.MetricsNamespace),
		authenticator:  authenticator,
		now:            time.Now,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: checkOrigin(cfg.AllowedOrigins),
		},
	}
	s.roomManager = room.NewRoomManager(roller, &countingRecorder{next: s.results, monitor: s.monitor})

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	// 初始化RPC服务器
	if cfg.RPCAddress != "" {
		s.rpcServer = monopoly_rpc.NewServer(cfg.RPCAddress)
		if err := s.rpcServer.Register(monopoly_rpc.NewAdminService(s.roomManager, s.results)); err != nil {
			logger.Log.Fatalf("Failed to register RPC service: %v", err)
		}
	}

	return s
}

// checkOrigin allows every origin when the list is empty. Requests without
// an Origin header come from non-browser clients and are always allowed.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

// countingRecorder counts finished games before storing them.
type countingRecorder struct {
	next    state.ResultRecorder
	monitor *monitor.Monitor
}

func (r *countingRecorder) RecordGame(g *game.State) error {
	r.monitor.IncGamesFinished()
	return r.next.RecordGame(g)
}

// Router builds the HTTP routes.
func (s *GameServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealth)
	r.Get("/rooms", s.handleRooms)
	r.Method(http.MethodGet, "/metrics", s.monitor.Handler())
	return r
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		if err := s.rpcServer.Start(); err != nil {
			return err
		}
	}

	s.mutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mutex.Unlock()

	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown tells every client, closes their connections and stops the
// listeners. Each close runs the normal disconnect path.
func (s *GameServer) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })

	if data, err := json.Marshal(network.SystemMessage{Text: "Server is shutting down"}); err == nil {
		s.broadcaster.BroadcastToAll(network.MsgTypeSystemMessage, data)
	}
	for _, sess := range s.sessionManager.All() {
		sess.Close()
	}
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}

	s.mutex.Lock()
	httpServer := s.httpServer
	s.mutex.Unlock()
	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"rooms":   s.roomManager.Count(),
		"players": s.sessionManager.Count(),
	})
}

func (s *GameServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.roomManager.Rooms()
	summaries := make([]room.Summary, 0, len(rooms))
	for _, rm := range rooms {
		summaries = append(summaries, rm.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("Failed to write response: %v", err)
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.authenticator.Authenticate(r)
	if err != nil {
		logger.Log.Infof("Rejected connection from %s: %v", r.RemoteAddr, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, playerID)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, playerID string) {
	wsConn := network.NewWSConnection(conn)
	// 服务端定时 ping，客户端无需主动发心跳
	wsConn.SetHeartbeat(s.heartbeat)
	sess := session.NewSession(uuid.New().String(), playerID, wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s, player ID: %s", wsConn.RemoteAddr(), sess.GetID(), playerID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		if err := s.leaveRoom(sess, sess.RoomID); err != nil {
			logger.Log.Debugf("Implicit leave for session %s: %v", sess.GetID(), err)
		}
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if errors.Is(err, io.ErrShortBuffer) {
				logger.Log.Warnf("Dropping malformed frame from session %s", sess.GetID())
				continue
			}
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handlePacket dispatches one intent. Failures are reported to the sender
// only.
func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	intent := network.MsgName(packet.MsgID)
	s.monitor.IncMessagesReceived(intent)
	sess.Touch()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()

	var err error
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		return
	case network.MsgTypeCreateRoom:
		err = s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		err = s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		err = s.handleLeaveRoom(sess, packet)
	case network.MsgTypeStartGame, network.MsgTypeRollDice, network.MsgTypeBuyProperty, network.MsgTypeEndTurn:
		err = s.handleGameAction(sess, packet)
	case network.MsgTypeSendChat:
		err = s.handleChat(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		logger.Log.Warnf("Dropping malformed %s from session %s: %v", intent, sess.GetID(), err)
		return
	}
	if err != nil {
		s.monitor.IncIntentsRejected(intent)
		logger.Log.Debugf("Session %s %s rejected: %v", sess.GetID(), intent, err)
		s.sendError(sess, err)
	}
}

func (s *GameServer) sendError(sess *session.Session, cause error) {
	data, err := json.Marshal(network.ErrorNotice{Message: cause.Error()})
	if err != nil {
		return
	}
	if err := sess.Send(network.MsgTypeError, data); err != nil {
		logger.Log.Debugf("Failed to send error to session %s: %v", sess.GetID(), err)
	}
}

// decode reads an optional JSON payload; an empty payload leaves v zeroed.
func decode(packet *network.Packet, v interface{}) error {
	if len(packet.Data) == 0 {
		return nil
	}
	return json.Unmarshal(packet.Data, v)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) error {
	var req network.CreateRoomRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return ErrNameRequired
	}

	if sess.RoomID != "" {
		s.leaveRoom(sess, sess.RoomID)
	}

	r := s.roomManager.CreateRoom(sess, name, s.broadcaster)
	sess.RoomID = r.ID
	s.monitor.SetActiveRooms(s.roomManager.Count())
	logger.Log.Infof("Session %s created room %s", sess.GetID(), r.ID)

	return r.AnnounceCreated(sess)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) error {
	var req network.JoinRoomRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return ErrNameRequired
	}

	r, exists := s.roomManager.GetRoom(req.RoomID)
	if !exists {
		return game.ErrRoomNotFound
	}
	if sess.RoomID != "" && sess.RoomID != r.ID {
		s.leaveRoom(sess, sess.RoomID)
	}

	if err := r.Handle(sess, state.Action{MsgID: network.MsgTypeJoinRoom, PlayerName: name}); err != nil {
		return err
	}
	sess.RoomID = r.ID
	logger.Log.Infof("Session %s joined room %s", sess.GetID(), r.ID)
	return nil
}

func (s *GameServer) handleLeaveRoom(sess *session.Session, packet *network.Packet) error {
	var req network.RoomRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	return s.leaveRoom(sess, s.targetRoom(sess, req.RoomID))
}

// leaveRoom removes the session from the room and forgets it when it was
// the session's current room.
func (s *GameServer) leaveRoom(sess *session.Session, roomID string) error {
	if roomID == "" {
		return game.ErrRoomNotFound
	}
	err := s.roomManager.Leave(roomID, sess)
	if room.NormalizeID(roomID) == sess.RoomID {
		sess.RoomID = ""
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())
	return err
}

// targetRoom prefers the room named in the request and falls back to the
// session's current room.
func (s *GameServer) targetRoom(sess *session.Session, requested string) string {
	if id := room.NormalizeID(requested); id != "" {
		return id
	}
	return sess.RoomID
}

func (s *GameServer) handleGameAction(sess *session.Session, packet *network.Packet) error {
	var req network.RoomRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	r, exists := s.roomManager.GetRoom(s.targetRoom(sess, req.RoomID))
	if !exists {
		return game.ErrRoomNotFound
	}
	return r.Handle(sess, state.Action{MsgID: packet.MsgID})
}

func (s *GameServer) handleChat(sess *session.Session, packet *network.Packet) error {
	var req network.ChatRequest
	if err := decode(packet, &req); err != nil {
		return err
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return ErrMessageRequired
	}
	r, exists := s.roomManager.GetRoom(s.targetRoom(sess, req.RoomID))
	if !exists {
		return game.ErrRoomNotFound
	}
	return r.Chat(sess, strings.TrimSpace(req.PlayerName), message, s.now())
}

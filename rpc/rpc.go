package rpc

import (
	"errors"
	"net"
	"net/rpc"
	"sync"

	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
	"github.com/wfunc/monopoly/room"
	"github.com/wfunc/monopoly/services"
)

// Server manages the RPC listener. Each Server has its own registry, so
// services are registered on the instance rather than on net/rpc globals.
type Server struct {
	rpc      *rpc.Server
	listener net.Listener
	address  string
	mutex    sync.Mutex
}

// NewServer creates a new RPC server.
func NewServer(addr string) *Server {
	return &Server{
		rpc:     rpc.NewServer(),
		address: addr,
	}
}

// Register publishes rcvr's exported methods under its type name.
func (s *Server) Register(rcvr interface{}) error {
	return s.rpc.Register(rcvr)
}

// Start listens and serves connections in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.listener = listener
	s.mutex.Unlock()

	logger.Log.Infof("RPC server listening on %s", listener.Addr())
	go s.serve(listener)
	return nil
}

func (s *Server) serve(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
		s.listener = nil
	}
}

// AdminService exposes read-only views of the server over RPC.
// Methods follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
type AdminService struct {
	rooms   *room.Manager
	results *services.ResultService
}

func NewAdminService(rooms *room.Manager, results *services.ResultService) *AdminService {
	return &AdminService{rooms: rooms, results: results}
}

// ListRoomsArgs filters by phase when Phase is set.
type ListRoomsArgs struct {
	Phase string
}

type ListRoomsReply struct {
	Rooms []room.Summary
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	rooms := a.rooms.Rooms()
	reply.Rooms = make([]room.Summary, 0, len(rooms))
	for _, r := range rooms {
		summary := r.Summary()
		if args.Phase != "" && summary.Phase != args.Phase {
			continue
		}
		reply.Rooms = append(reply.Rooms, summary)
	}
	return nil
}

type GetPlayerStatsArgs struct {
	Name string
}

type GetPlayerStatsReply struct {
	Stats models.PlayerStats
}

func (a *AdminService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := a.results.PlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}

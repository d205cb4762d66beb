package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/screenhop/internal/engine"
)

// Controller is the daemon surface the server exposes.
type Controller interface {
	Reload() (*engine.Topology, error)
	Suspend()
	Resume()
	SwitchScreen(device string) error
	Stats() engine.Stats
	Devices() []engine.DeviceStatus
	Topology() *engine.Topology
	ConfigPath() string
	Uptime() time.Duration
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctl          Controller
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on socketPath, removing a stale socket.
func NewServer(socketPath string, ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	os.Remove(socketPath)
	return &Server{
		socketPath: socketPath,
		ctl:        ctl,
		logger:     logger,
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetTopology:
		return s.handleGetTopology()
	case CommandSuspend:
		s.ctl.Suspend()
		return ok(nil)
	case CommandResume:
		s.ctl.Resume()
		return ok(nil)
	case CommandSwitchScreen:
		return s.handleSwitchScreen(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	s.logger.Info("IPC: received RELOAD")

	t, err := s.ctl.Reload()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return ok(ReloadData{
		Generation: t.Generation,
		Screens:    t.Len(),
		Mappings:   t.Mappings.Len(),
	})
}

func (s *Server) handleGetStatus() *Response {
	return ok(StatusData{
		ConfigPath:    s.ctl.ConfigPath(),
		UptimeSeconds: int64(s.ctl.Uptime().Seconds()),
		DaemonRunning: true,
		Stats:         s.ctl.Stats(),
		Devices:       s.ctl.Devices(),
	})
}

func (s *Server) handleGetTopology() *Response {
	t := s.ctl.Topology()
	if t == nil {
		return NewErrorResponse(engine.ErrNoTopology.Error())
	}
	return ok(t.Describe())
}

func (s *Server) handleSwitchScreen(payload json.RawMessage) *Response {
	var req SwitchScreenPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid switch payload: %v", err))
		}
	}
	if err := s.ctl.SwitchScreen(req.Device); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to switch screen: %v", err))
	}
	return ok(nil)
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/firecorners/cornerd/internal/daemon"
	"github.com/firecorners/cornerd/internal/domain"
)

const connTimeout = 5 * time.Second

// Controller is the daemon control surface served over the socket.
type Controller interface {
	Reload() error
	Status() daemon.Status
	Stop()
	Pause() error
	Resume() error
	Fire(corner domain.Corner) (string, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	controller   Controller
	logger       *zap.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a server for socketPath. A stale socket file is removed.
func NewServer(socketPath string, controller Controller, logger *zap.Logger) *Server {
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		controller: controller,
		logger:     logger,
	}
}

// SocketPath returns the socket path.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", zap.String("socket", s.socketPath))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and removes the socket file.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", zap.Error(err))
			time.Sleep(50 * time.Millisecond)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("IPC read error", zap.Error(err))
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("invalid request: %v", err)))
		return
	}

	s.logger.Debug("IPC request", zap.String("command", string(req.Command)))
	resp := s.handleCommand(req)
	s.send(conn, resp)

	// Reply before stopping so the client sees the acknowledgement
	if req.Command == CommandStop && resp.Status == StatusOK {
		s.controller.Stop()
	}
}

func (s *Server) send(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Debug("failed to send response", zap.Error(err))
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.simple(s.controller.Reload())
	case CommandStatus:
		resp, err := NewOKResponse(s.controller.Status())
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		return resp
	case CommandStop:
		s.logger.Info("IPC: received STOP")
		return s.simple(nil)
	case CommandPause:
		return s.simple(s.controller.Pause())
	case CommandResume:
		return s.simple(s.controller.Resume())
	case CommandFire:
		return s.handleFire(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleFire(payload json.RawMessage) *Response {
	var p FirePayload
	if len(payload) == 0 {
		return NewErrorResponse("FIRE requires a corner")
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid payload: %v", err))
	}
	corner, err := domain.ParseCorner(p.Corner)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	triggerID, err := s.controller.Fire(corner)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(FireData{Corner: corner.String(), TriggerID: triggerID})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) simple(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

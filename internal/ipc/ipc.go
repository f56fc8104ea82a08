// Package ipc is the control channel between the voice daemon and
// neurotask-ctl: one JSON request and one JSON reply per unix socket
// connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocket = "/tmp/neurotask.sock"

const (
	CmdStart      = "start"
	CmdStop       = "stop"
	CmdToggle     = "toggle"
	CmdStatus     = "status"
	CmdTranscript = "transcript"
	CmdClear      = "clear"
)

var Commands = []string{CmdStart, CmdStop, CmdToggle, CmdStatus, CmdTranscript, CmdClear}

const ioTimeout = 5 * time.Second

// SocketPath honours NEUROTASK_SOCKET.
func SocketPath() string {
	if p := os.Getenv("NEUROTASK_SOCKET"); p != "" {
		return p
	}
	return DefaultSocket
}

type Request struct {
	Cmd string `json:"cmd"`
}

type Reply struct {
	OK     bool     `json:"ok"`
	State  string   `json:"state,omitempty"`
	Status string   `json:"status,omitempty"`
	Lines  []string `json:"lines,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func Fail(err error) Reply {
	return Reply{Error: err.Error()}
}

type Handler func(Request) Reply

type Server struct {
	path    string
	ln      net.Listener
	handler Handler

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen replaces any stale socket at path and starts serving.
func Listen(path string, h Handler) (*Server, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	s := &Server{path: path, ln: ln, handler: h}

	s.wg.Add(1)
	go s.accept()

	return s, nil
}

func (s *Server) Path() string { return s.path }

func (s *Server) accept() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("Accept failed", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Bad control request", "err", err)
		return
	}

	log.Debug("Control request", "cmd", req.Cmd)

	if err := json.NewEncoder(conn).Encode(s.handler(req)); err != nil {
		log.Warn("Failed to reply", "cmd", req.Cmd, "err", err)
	}
}

// Close stops accepting, waits for in-flight requests and removes the socket.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.ln.Close()
		s.wg.Wait()
		_ = os.Remove(s.path)
	})
	return err
}

func Send(path, cmd string) (Reply, error) {
	conn, err := net.DialTimeout("unix", path, ioTimeout)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	if err := json.NewEncoder(conn).Encode(Request{Cmd: cmd}); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var rep Reply
	if err := json.NewDecoder(conn).Decode(&rep); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}

	if !rep.OK && rep.Error != "" {
		return rep, errors.New(rep.Error)
	}
	return rep, nil
}

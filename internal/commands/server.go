// internal/commands/server.go
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

// Server accepts line-oriented command connections. Every line gets a
// one-line reply: the status for STATUS, OK when accepted, or ERR <reason>.
type Server struct {
	logger     *zap.Logger
	addr       string
	maxConns   int
	dispatcher Dispatcher

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	ready    chan struct{}
}

// NewServer creates a Server. maxConns <= 0 leaves the connection count unbounded.
func NewServer(logger *zap.Logger, addr string, maxConns int, dispatcher Dispatcher) *Server {
	return &Server{
		logger:     logger.Named("command_server"),
		addr:       addr,
		maxConns:   maxConns,
		dispatcher: dispatcher,
		conns:      make(map[net.Conn]struct{}),
		ready:      make(chan struct{}),
	}
}

// Addr returns the bound address once Run is listening, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Run listens until ctx is cancelled, then closes the listener and every
// open connection and waits for the handlers to return.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)
	s.logger.Info("Command server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeConns()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("Command server stopped")
				return nil
			}
			s.logger.Warn("Accept failed", zap.Error(err))
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	if s.conns != nil {
		delete(s.conns, conn)
	}
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}

func (s *Server) handle(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.logger.Info("Command client connected", zap.String("remote", remote))
	defer s.logger.Info("Command client disconnected", zap.String("remote", remote))

	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		reply := s.apply(scanner.Text())
		if reply == "" {
			continue
		}
		if _, err := w.WriteString(reply + "\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

// apply handles one line and returns the reply. Blank lines get none.
func (s *Server) apply(line string) string {
	cmd, err := Parse(line)
	if errors.Is(err, ErrEmptyCommand) {
		return ""
	}
	if err != nil {
		s.logger.Warn("Rejected command", zap.String("line", line), zap.Error(err))
		return "ERR " + err.Error()
	}

	s.logger.Info("Received command", zap.Stringer("command", cmd))
	if cmd.Kind == KindStatus {
		return s.dispatcher.Status()
	}
	if !s.dispatcher.Dispatch(cmd) {
		return "ERR busy"
	}
	return "OK"
}

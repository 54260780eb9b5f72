package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Reports renders the two query responses. The daemon wires in the
// reporter; tests substitute a fake.
type Reports interface {
	Summary(ctx context.Context, start, end, now time.Time) (string, error)
	Current(ctx context.Context, now time.Time) (string, error)
}

// Server answers one request per connection on a unix socket. Each
// connection is handled concurrently and independently of the daemon's
// event loop.
type Server struct {
	socketPath string
	timeout    time.Duration
	reports    Reports
	clock      func() time.Time

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	shutdown sync.Once
}

func NewServer(socketPath string, timeout time.Duration, reports Reports) *Server {
	return &Server{
		socketPath: socketPath,
		timeout:    timeout,
		reports:    reports,
		clock:      time.Now,
	}
}

// Start binds the socket and begins accepting. A leftover socket from
// a crashed daemon is replaced; any other file at the path is refused.
func (s *Server) Start(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}

	if st, err := os.Lstat(s.socketPath); err == nil {
		if st.Mode()&os.ModeSocket == 0 {
			return fmt.Errorf("socket path exists and is not a unix socket: %s", s.socketPath)
		}
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat socket path: %w", err)
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}

	// The timeline is private to the owning user.
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("failed to chmod socket: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go s.acceptLoop(ctx, ln)
	return nil
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("query: accept: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, conn)
		}()
	}
}

// serve handles one connection: read to EOF, answer, close. A stalled
// peer is cut off by the deadline rather than holding the handler.
func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		log.Printf("query: set deadline: %v", err)
		return
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		log.Printf("query: read request: %v", err)
		return
	}

	reply, err := s.respond(ctx, data)
	if err != nil {
		reply = "Error: " + err.Error() + "\n"
	}

	if _, err := io.WriteString(conn, reply); err != nil {
		log.Printf("query: write response: %v", err)
	}
}

func (s *Server) respond(ctx context.Context, data []byte) (string, error) {
	req, err := DecodeRequest(data)
	if err != nil {
		return "", err
	}

	now := s.clock()
	switch {
	case req.Current:
		return s.reports.Current(ctx, now)
	case req.Summary != nil:
		start, end, err := req.Summary.Window(now)
		if err != nil {
			return "", err
		}
		return s.reports.Summary(ctx, start, end, now)
	default:
		return "", fmt.Errorf("empty request")
	}
}

// Shutdown stops accepting, waits for in-flight connections and cleans
// up the socket file.
func (s *Server) Shutdown() error {
	var err error
	s.shutdown.Do(func() {
		s.mu.Lock()
		ln := s.listener
		s.listener = nil
		s.mu.Unlock()

		if ln != nil {
			ln.Close()
		}
		s.wg.Wait()

		if rmErr := os.Remove(s.socketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = fmt.Errorf("failed to remove socket: %w", rmErr)
		}
	})
	return err
}

package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/starkalterego/identra/internal/securemem"
)

// Handler dispatches one protocol request to the vault core.
type Handler interface {
	Handle(req Request) Response
}

// StateTracker records daemon-wide connection lifecycle. Implemented by
// vault.State; the methods return the new active-connection count.
type StateTracker interface {
	MarkInitialized()
	ConnOpened() int
	ConnClosed() int
}

// Server accepts local connections on the vault endpoint and drives each
// one to completion against the handler. Every connection runs on its own
// goroutine; requests within a connection are served strictly in arrival
// order, one in flight at a time.
type Server struct {
	handler Handler
	state   StateTracker
	logger  *slog.Logger

	// accepts throttles retries after transient accept failures so a
	// broken listener cannot spin the loop.
	accepts *rate.Limiter

	// conns tracks live connection goroutines for Shutdown.
	conns sync.WaitGroup

	mu sync.Mutex
	ln net.Listener
}

// NewServer creates a server dispatching to the given handler.
func NewServer(h Handler, state StateTracker) *Server {
	return &Server{
		handler: h,
		state:   state,
		logger:  slog.With("component", "ipc"),
		accepts: rate.NewLimiter(rate.Limit(10), 1),
	}
}

// Listen binds the endpoint and serves until Close. Failure to bind is the
// only fatal condition; everything after that is per-connection.
func (s *Server) Listen(endpoint string) error {
	ln, err := listenEndpoint(endpoint)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.state.MarkInitialized()
	s.logger.Info("vault IPC listening", "endpoint", endpoint)
	return s.serve(ln)
}

// Close stops accepting new connections. Connections already open are not
// torn down; they drain naturally.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Shutdown stops accepting new connections and waits for the open ones to
// drain. Open connections are never aborted; the wait ends when the last
// client hangs up or the context expires, whichever comes first.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", "error", err)
			s.accepts.Wait(context.Background())
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.serveConn(conn)
		}()
	}
}

// serveConn runs one connection: read a line, dispatch, write a line,
// repeat until the client hangs up. A malformed line gets an error response
// and the connection stays usable; an IO error tears the connection down
// without touching any other connection.
func (s *Server) serveConn(conn net.Conn) {
	connID := uuid.NewString()[:8]
	logger := s.logger.With("conn", connID)
	logger.Debug("connection opened", "active", s.state.ConnOpened())

	defer func() {
		conn.Close()
		logger.Debug("connection closed", "active", s.state.ConnClosed())
	}()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("read failed", "error", err)
			}
			return
		}

		var resp Response
		req, perr := ParseRequest(line)
		if perr != nil {
			resp = NewError("malformed request: %v", perr)
		} else {
			resp = s.handler.Handle(req)
		}

		werr := writeResponse(conn, &resp)
		// The raw line held a base64 copy of any incoming payload.
		securemem.Wipe(line)
		req.Wipe()
		resp.Wipe()
		if werr != nil {
			// The client disconnected mid-request. Normal teardown,
			// nothing to propagate.
			logger.Debug("write failed", "error", werr)
			return
		}
		if resp.Type == RespShuttingDown {
			logger.Info("connection requested shutdown")
			return
		}
	}
}

func writeResponse(conn net.Conn, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// Response types are plain data; this only fires on programmer
		// error. Still answer the client.
		data, _ = json.Marshal(NewError("internal: encoding response"))
	}
	data = append(data, '\n')
	_, werr := conn.Write(data)
	// The frame held a base64 copy of the payload.
	securemem.Wipe(data)
	return werr
}

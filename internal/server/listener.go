package server

import (
	"net"
	"sync"

	"go.uber.org/zap"
)

// DefaultPort matches the source's SERVER_PORT.
const DefaultPort = 1234

// Listener accepts TCP connections and hands each to the dispatcher loop,
// standing in for the source's accept_new_connections plus non-blocking
// socket setup: net.Listener.Accept already yields cooperatively, so no
// explicit EAGAIN loop is needed.
type Listener struct {
	ln     net.Listener
	loop   *Loop
	logger *zap.Logger
	wg     sync.WaitGroup
}

// Listen binds addr (host:port, or ":1234" for INADDR_ANY on the default
// port) with SO_REUSEADDR-equivalent semantics (Go's net package sets
// SO_REUSEADDR on TCP listeners by default on Unix).
func Listen(addr string, loop *Loop, logger *zap.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, loop: loop, logger: logger}, nil
}

// Addr returns the listener's bound address.
func (s *Listener) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts connections until Close is called, spawning one goroutine
// per accepted connection. It blocks until the listener is closed and
// every spawned connection goroutine has returned.
func (s *Listener) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			s.wg.Wait()
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			serveConnection(s.loop, conn, s.logger)
		}()
	}
}

// Close stops accepting new connections. In-flight connections are left
// to drain on their own; Serve returns once they have.
func (s *Listener) Close() error {
	return s.ln.Close()
}

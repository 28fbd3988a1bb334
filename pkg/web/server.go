// Package web is the accept-loop collaborator of the worker pool: it
// binds a TCP listener and turns every accepted connection into one
// task submitted to the pool. The HTTP handling is deliberately
// minimal, matching the request line only.
package web

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hearthio/hearth/pkg/config"
	"github.com/hearthio/hearth/pkg/metrics"
	"github.com/hearthio/hearth/pkg/pool"
)

const (
	statusOK       = "HTTP/1.1 200 OK"
	statusNotFound = "HTTP/1.1 404 NOT FOUND"
	statusError    = "HTTP/1.1 500 INTERNAL SERVER ERROR"

	indexPage    = "index.html"
	notFoundPage = "404.html"
)

// Server accepts connections and hands them to the pool for handling.
type Server struct {
	cfg  config.Config
	pool *pool.Pool
	log  logrus.FieldLogger
	mtr  *metrics.Metrics

	ln net.Listener
	wg sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics installs connection counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.mtr = m }
}

// NewServer builds a server over an already-running pool. The server
// does not own the pool: Stop closes the listener but leaves pool
// shutdown to the caller, which typically drains it right after.
func NewServer(cfg config.Config, p *pool.Pool, opts ...Option) *Server {
	s := &Server{
		cfg:  cfg,
		pool: p,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and spawns the accept loop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.cfg.ListenAddr, err)
	}
	s.ln = ln
	s.log.WithField("addr", ln.Addr().String()).Info("listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop closes the listener and waits for the accept loop to exit.
// Connections already handed to the pool keep running until the pool
// is drained.
func (s *Server) Stop() error {
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

// acceptLoop turns each accepted connection into exactly one pool task.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.WithError(err).Error("accept failed")
			continue
		}

		if s.mtr != nil {
			s.mtr.ConnectionsAccepted.Inc()
		}

		id := uuid.NewString()
		task := func() { s.handle(id, conn) }
		if err := s.pool.Submit(task); err != nil {
			// Pool already shut down: reject the connection.
			s.log.WithError(err).WithField("conn", id).Warn("dropping connection")
			if s.mtr != nil {
				s.mtr.ConnectionsRejected.Inc()
			}
			conn.Close()
		}
	}
}

// handle reads the request line and writes back a static response. It
// runs on a pool worker.
func (s *Server) handle(id string, conn net.Conn) {
	defer conn.Close()

	log := s.log.WithFields(logrus.Fields{
		"conn":   id,
		"remote": conn.RemoteAddr().String(),
	})

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		log.WithError(err).Error("failed to read request line")
		return
	}

	status, page := s.route(strings.TrimRight(line, "\r\n"))
	log.WithFields(logrus.Fields{"request": strings.TrimRight(line, "\r\n"), "status": status}).Debug("handling request")

	body, err := os.ReadFile(filepath.Join(s.cfg.StaticDir, page))
	if err != nil {
		log.WithError(err).WithField("page", page).Error("failed to read page")
		if _, werr := fmt.Fprintf(conn, "%s\r\nContent-Length: 12\r\n\r\nServer Error", statusError); werr != nil {
			log.WithError(werr).Error("failed to write error response")
		}
		return
	}

	if _, err := fmt.Fprintf(conn, "%s\r\nContent-Length: %d\r\n\r\n%s", status, len(body), body); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}

// route matches the bare request line against the two known endpoints.
func (s *Server) route(line string) (status, page string) {
	switch {
	case strings.HasPrefix(line, "GET / HTTP/1.1"):
		return statusOK, indexPage
	case strings.HasPrefix(line, "GET /sleep HTTP/1.1"):
		// Deliberately slow endpoint: occupies one worker slot for
		// the whole delay.
		time.Sleep(s.cfg.SleepDelay)
		return statusOK, indexPage
	default:
		return statusNotFound, notFoundPage
	}
}

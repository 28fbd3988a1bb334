package metrics

import (
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Handler returns an HTTP handler for the registry (for standard http).
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Server serves the scrape endpoint over fasthttp.
type Server struct {
	addr string
	ln   net.Listener
	srv  *fasthttp.Server
}

// NewServer builds a fasthttp server exposing the registry at /metrics.
func NewServer(addr string, registry *prometheus.Registry) *Server {
	// Adapt the standard promhttp handler to fasthttp.
	adaptor := fasthttpadaptor.NewFastHTTPHandler(Handler(registry))

	return &Server{
		addr: addr,
		srv: &fasthttp.Server{
			Handler: func(ctx *fasthttp.RequestCtx) {
				if string(ctx.Path()) != "/metrics" {
					ctx.SetStatusCode(fasthttp.StatusNotFound)
					return
				}
				adaptor(ctx)
			},
		},
	}
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics listener on %s: %w", s.addr, err)
	}
	s.ln = ln

	// Serve returns once Stop shuts the server down.
	go s.srv.Serve(ln)

	return nil
}

// Addr returns the bound listener address, nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop shuts the scrape endpoint down.
func (s *Server) Stop() error {
	return s.srv.Shutdown()
}

package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/yndnr/tokguard-go/internal/infra/tlsroots"
	"github.com/yndnr/tokguard-go/internal/server/config"
	"github.com/yndnr/tokguard-go/internal/telemetry/logger"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	reloader   *tlsroots.Reloader
	logger     logger.Logger
	listener   net.Listener
}

// New creates a server for cfg. TLS is enabled when both certificate files
// are set; they are watched and reloaded on change.
func New(cfg config.HTTPConfig, h http.Handler, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		logger: log,
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		r, err := tlsroots.NewReloader(cfg.TLSCertFile, cfg.TLSKeyFile, tlsroots.WithLogger(log))
		if err != nil {
			return nil, err
		}
		s.reloader = r
		s.httpServer.TLSConfig = r.ServerConfig()
	}
	return s, nil
}

// TLS reports whether the server serves HTTPS.
func (s *Server) TLS() bool {
	return s.reloader != nil
}

// Listen binds the listening socket. Run calls it if needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Run serves until Shutdown is called and returns nil after a clean
// shutdown. ctx bounds the certificate reloader.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	if s.reloader != nil {
		go func() {
			if err := s.reloader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("certificate reloader stopped", "error", err)
			}
		}()
	}

	s.logger.Info("http server listening", "addr", s.Addr(), "tls", s.TLS())

	var err error
	if s.reloader != nil {
		err = s.httpServer.ServeTLS(s.listener, "", "")
	} else {
		err = s.httpServer.Serve(s.listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ShutdownTimeout returns a context for Shutdown bounded by d.
func ShutdownTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}
